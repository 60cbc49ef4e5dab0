package remote

// RecipeDocument is the raw recipe detail returned by the recipe API.
// Optional values are pointers; normalization decides how to render them.
type RecipeDocument struct {
	ID                   uint64             `json:"id"`
	Title                string             `json:"title"`
	Summary              string             `json:"summary"`
	Servings             int                `json:"servings"`
	ReadyInMinutes       int                `json:"readyInMinutes"`
	SourceName           string             `json:"sourceName"`
	SourceURL            string             `json:"sourceUrl"`
	Image                string             `json:"image"`
	ExtendedIngredients  []Ingredient       `json:"extendedIngredients"`
	AnalyzedInstructions []InstructionBlock `json:"analyzedInstructions"`
	Nutrition            *NutritionBlock    `json:"nutrition,omitempty"`
}

// Ingredient is one entry of extendedIngredients.
type Ingredient struct {
	Name     string   `json:"name"`
	Amount   *float64 `json:"amount"`
	Unit     *string  `json:"unit"`
	Original *string  `json:"original"`
}

// InstructionBlock groups steps; recipes usually carry a single unnamed block.
type InstructionBlock struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Step is one analyzed instruction step.
type Step struct {
	Number *int   `json:"number"`
	Step   string `json:"step"`
}

// NutritionBlock holds the flat nutrient list.
type NutritionBlock struct {
	Nutrients []Nutrient `json:"nutrients"`
}

// Nutrient is a named quantity such as {"name":"Protein","amount":20,"unit":"g"}.
type Nutrient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
}
