package models

import (
	"math"
	"time"
)

// SavedRecipe links a user to a recipe they saved. The natural key is
// (UserID, RecipeKey); ID is a store-assigned surrogate.
type SavedRecipe struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RecipeKey string    `json:"recipe_key"`
	SavedAt   time.Time `json:"saved_at"`
	Favourite bool      `json:"favourite"`
}

// Rating is a user's star rating of a recipe, at most one per (UserID, RecipeKey).
type Rating struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RecipeKey string    `json:"recipe_key"`
	Stars     float64   `json:"stars"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Star bounds. Zero marks a recipe the user touched but did not rate.
const (
	MinStars  = 0.0
	MaxStars  = 5.0
	StarsStep = 0.5
)

// ValidStars reports whether s is within [MinStars, MaxStars] on a half-star step.
func ValidStars(s float64) bool {
	if math.IsNaN(s) || s < MinStars || s > MaxStars {
		return false
	}
	return math.Mod(s, StarsStep) == 0
}

// FridgeItem is one ingredient a user has on hand.
type FridgeItem struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Item   string `json:"item"`
}
