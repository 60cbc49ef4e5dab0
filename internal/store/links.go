package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/recipebox/internal/models"
)

// UserRecipe is the natural key of links and ratings: a user and a
// namespaced recipe key such as "a716429".
type UserRecipe struct {
	UserID    int64
	RecipeKey string
}

// ForUser returns a ScanBy predicate selecting one user's records.
func ForUser(userID int64) func(UserRecipe) bool {
	return func(k UserRecipe) bool { return k.UserID == userID }
}

// LinksFile is the default backing file of the saved-recipe store.
const LinksFile = "saved_recipes.csv"

// LinkHeader is the column layout of the saved-recipe store.
var LinkHeader = []string{"id", "userId", "recipeKey", "savedAt", "favourite"}

// Links holds SavedRecipe records.
type Links = Keyed[UserRecipe, models.SavedRecipe]

// LinkSchema maps SavedRecipe onto LinkHeader.
var LinkSchema = Schema[UserRecipe, models.SavedRecipe]{
	Name:   "saved_recipes",
	Header: LinkHeader,
	Key: func(v models.SavedRecipe) UserRecipe {
		return UserRecipe{UserID: v.UserID, RecipeKey: v.RecipeKey}
	},
	ID:    func(v models.SavedRecipe) int64 { return v.ID },
	SetID: func(v *models.SavedRecipe, id int64) { v.ID = id },
	Encode: func(v models.SavedRecipe) []string {
		return []string{formatInt(v.ID), formatInt(v.UserID), v.RecipeKey, formatTime(v.SavedAt), formatBool(v.Favourite)}
	},
	Decode: decodeLink,
}

func decodeLink(row []string) (models.SavedRecipe, error) {
	if len(row) != len(LinkHeader) {
		return models.SavedRecipe{}, fmt.Errorf("got %d fields, want %d", len(row), len(LinkHeader))
	}
	id, err1 := parseID("id", row[0])
	user, err2 := parseInt("userId", row[1])
	key, err3 := requireText("recipeKey", row[2])
	savedAt, err4 := parseTime("savedAt", row[3])
	fav, err5 := parseBool("favourite", row[4])
	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return models.SavedRecipe{}, err
	}
	return models.SavedRecipe{ID: id, UserID: user, RecipeKey: key, SavedAt: savedAt, Favourite: fav}, nil
}

// OpenLinks opens the saved-recipe store on backend.
func OpenLinks(backend Backend, logger *slog.Logger) (*Links, error) {
	return Open(backend, LinkSchema, logger)
}
