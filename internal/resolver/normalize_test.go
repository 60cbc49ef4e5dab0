package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/remote"
)

func TestQuantity(t *testing.T) {
	tests := []struct {
		name   string
		amount *float64
		unit   *string
		want   string
	}{
		{"integral with unit", ptr(20.0), ptr("g"), "20g"},
		{"fraction with unit", ptr(12.5), ptr("g"), "12.5g"},
		{"leading space unit", ptr(20.0), ptr(" g"), "20 g"},
		{"unit only", nil, ptr("pinch"), "pinch"},
		{"amount only", ptr(3.0), nil, "3"},
		{"empty unit", ptr(3.0), ptr(""), "3"},
		{"both absent", nil, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quantity(tt.amount, tt.unit))
		})
	}
}

func TestNormalize_Ingredients(t *testing.T) {
	doc := &remote.RecipeDocument{
		ExtendedIngredients: []remote.Ingredient{
			{Name: "garlic", Amount: ptr(2.0), Unit: ptr("cloves"), Original: ptr("2 cloves garlic")},
			{Name: "salt"},
		},
	}
	got := Normalize(9, doc)

	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, models.Ingredient{Name: "garlic", Amount: ptr(2.0), Unit: "cloves", Original: "2 cloves garlic"}, got.Ingredients[0])
	assert.Equal(t, models.Ingredient{Name: "salt"}, got.Ingredients[1])
}

func TestNormalize_StepsFromFirstBlock(t *testing.T) {
	doc := &remote.RecipeDocument{
		AnalyzedInstructions: []remote.InstructionBlock{
			{Steps: []remote.Step{
				{Number: ptr(3), Step: "Boil."},
				{Step: "Drain."},
			}},
			{Name: "Sauce", Steps: []remote.Step{{Number: ptr(1), Step: "Ignored."}}},
		},
	}
	got := Normalize(1, doc)

	assert.Equal(t, []models.InstructionStep{
		{Number: 3, Text: "Boil."},
		{Number: 2, Text: "Drain."},
	}, got.Instructions)
}

func TestNormalize_NoInstructions(t *testing.T) {
	got := Normalize(1, &remote.RecipeDocument{})
	assert.NotNil(t, got.Instructions)
	assert.Empty(t, got.Instructions)
	assert.Nil(t, got.Nutrition)
}

func TestNormalize_NutritionByCaseInsensitiveName(t *testing.T) {
	doc := &remote.RecipeDocument{
		Nutrition: &remote.NutritionBlock{Nutrients: []remote.Nutrient{
			{Name: "CALORIES", Amount: ptr(584.0), Unit: ptr("kcal")},
			{Name: "fat", Amount: ptr(19.5), Unit: ptr(" g")},
			{Name: "Carbohydrates", Unit: ptr("g")},
			{Name: "Sugar", Amount: ptr(4.0), Unit: ptr("g")},
		}},
	}
	got := Normalize(1, doc)

	require.NotNil(t, got.Nutrition)
	assert.Equal(t, models.Nutrition{
		Calories:      "584",
		Fat:           "19.5 g",
		Carbohydrates: "g",
	}, *got.Nutrition)
}

func TestNormalize_SummaryHTMLStripped(t *testing.T) {
	doc := &remote.RecipeDocument{Summary: "A <b>quick</b> dinner with <a href=\"x\">garlic</a>."}
	assert.Equal(t, "A quick dinner with garlic.", Normalize(1, doc).Description)
}
