// Package models defines the domain types for recipebox.
package models

// Recipe is the canonical in-memory recipe aggregate returned by the resolver
// and stored by the recipe cache.
type Recipe struct {
	ID              uint64            `json:"id"`
	Key             string            `json:"key"`
	Title           string            `json:"title"`
	Description     string            `json:"description,omitempty"`
	Servings        int               `json:"servings"`
	PrepTimeMinutes int               `json:"prep_time_minutes"`
	SourceName      string            `json:"source_name"`
	SourceURL       string            `json:"source_url"`
	ImageURL        string            `json:"image_url,omitempty"`
	Ingredients     []Ingredient      `json:"ingredients"`
	Instructions    []InstructionStep `json:"instructions"`
	Nutrition       *Nutrition        `json:"nutrition,omitempty"`
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string   `json:"name"`
	Amount   *float64 `json:"amount,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Original string   `json:"original,omitempty"`
}

// InstructionStep is one numbered preparation step.
type InstructionStep struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Nutrition is the rendered nutrition summary, e.g. Protein "20g".
// Empty fields mean the value was not available.
type Nutrition struct {
	Calories      string `json:"calories,omitempty"`
	Protein       string `json:"protein,omitempty"`
	Fat           string `json:"fat,omitempty"`
	Carbohydrates string `json:"carbohydrates,omitempty"`
}
