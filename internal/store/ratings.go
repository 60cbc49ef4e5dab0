package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/starford/recipebox/internal/models"
)

// RatingsFile is the default backing file of the rating store.
const RatingsFile = "ratings.csv"

// RatingHeader is the column layout of the rating store.
var RatingHeader = []string{"id", "userId", "recipeKey", "stars", "updatedAt"}

// Ratings holds Rating records, at most one per user and recipe.
type Ratings = Keyed[UserRecipe, models.Rating]

// RatingSchema maps Rating onto RatingHeader.
var RatingSchema = Schema[UserRecipe, models.Rating]{
	Name:   "ratings",
	Header: RatingHeader,
	Key: func(v models.Rating) UserRecipe {
		return UserRecipe{UserID: v.UserID, RecipeKey: v.RecipeKey}
	},
	ID:    func(v models.Rating) int64 { return v.ID },
	SetID: func(v *models.Rating, id int64) { v.ID = id },
	Encode: func(v models.Rating) []string {
		return []string{
			formatInt(v.ID),
			formatInt(v.UserID),
			v.RecipeKey,
			strconv.FormatFloat(v.Stars, 'f', 1, 64),
			formatTime(v.UpdatedAt),
		}
	},
	Decode: decodeRating,
}

func decodeRating(row []string) (models.Rating, error) {
	if len(row) != len(RatingHeader) {
		return models.Rating{}, fmt.Errorf("got %d fields, want %d", len(row), len(RatingHeader))
	}
	id, err1 := parseID("id", row[0])
	user, err2 := parseInt("userId", row[1])
	key, err3 := requireText("recipeKey", row[2])
	stars, err4 := strconv.ParseFloat(row[3], 64)
	if err4 != nil || !models.ValidStars(stars) {
		err4 = fmt.Errorf("stars: invalid value %q", row[3])
	}
	updated, err5 := parseTime("updatedAt", row[4])
	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return models.Rating{}, err
	}
	return models.Rating{ID: id, UserID: user, RecipeKey: key, Stars: stars, UpdatedAt: updated}, nil
}

// OpenRatings opens the rating store on backend.
func OpenRatings(backend Backend, logger *slog.Logger) (*Ratings, error) {
	return Open(backend, RatingSchema, logger)
}
