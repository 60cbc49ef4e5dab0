package api

import (
	"github.com/starford/recipebox/internal/models"
)

// SaveRecipeRequest is the request body for saving a recipe.
type SaveRecipeRequest struct {
	Key string `json:"key" example:"a716429" validate:"required"`
}

// FavouriteRequest is the request body for flagging a saved recipe.
type FavouriteRequest struct {
	Favourite *bool `json:"favourite" example:"true" validate:"required"`
}

// RatingRequest is the request body for rating a recipe.
type RatingRequest struct {
	Stars *float64 `json:"stars" example:"4.5" validate:"required"`
}

// FridgeItemRequest is the request body for adding a fridge item.
type FridgeItemRequest struct {
	Item string `json:"item" example:"milk" validate:"required"`
}

// CreateRecipeRequest is the request body for authoring a custom recipe.
type CreateRecipeRequest struct {
	UserID int64         `json:"user_id" example:"1" validate:"required"`
	Recipe models.Recipe `json:"recipe" validate:"required"`
}

// SavedListResponse wraps a user's saved recipes.
type SavedListResponse struct {
	Saved []models.SavedRecipe `json:"saved" validate:"required"`
}

// FridgeResponse wraps a user's fridge contents.
type FridgeResponse struct {
	Items []string `json:"items" validate:"required"`
}
