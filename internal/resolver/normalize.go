package resolver

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/recipekey"
	"github.com/starford/recipebox/internal/remote"
)

// Normalize maps a remote recipe document onto the canonical Recipe for
// the external key id.
func Normalize(id uint64, doc *remote.RecipeDocument) models.Recipe {
	r := models.Recipe{
		ID:              id,
		Key:             recipekey.NewExternal(id).String(),
		Title:           doc.Title,
		Description:     plainText(doc.Summary),
		Servings:        doc.Servings,
		PrepTimeMinutes: doc.ReadyInMinutes,
		SourceName:      doc.SourceName,
		SourceURL:       doc.SourceURL,
		ImageURL:        doc.Image,
		Ingredients:     make([]models.Ingredient, 0, len(doc.ExtendedIngredients)),
		Instructions:    []models.InstructionStep{},
	}

	for _, in := range doc.ExtendedIngredients {
		ing := models.Ingredient{Name: in.Name, Amount: in.Amount}
		if in.Unit != nil {
			ing.Unit = *in.Unit
		}
		if in.Original != nil {
			ing.Original = *in.Original
		}
		r.Ingredients = append(r.Ingredients, ing)
	}

	if len(doc.AnalyzedInstructions) > 0 {
		steps := doc.AnalyzedInstructions[0].Steps
		r.Instructions = make([]models.InstructionStep, 0, len(steps))
		for i, st := range steps {
			n := i + 1
			if st.Number != nil {
				n = *st.Number
			}
			r.Instructions = append(r.Instructions, models.InstructionStep{Number: n, Text: st.Step})
		}
	}

	if doc.Nutrition != nil {
		r.Nutrition = nutritionSummary(doc.Nutrition.Nutrients)
	}
	return r
}

func nutritionSummary(nutrients []remote.Nutrient) *models.Nutrition {
	var n models.Nutrition
	var found bool
	for _, nu := range nutrients {
		switch strings.ToLower(strings.TrimSpace(nu.Name)) {
		case "calories":
			if nu.Amount != nil {
				n.Calories = formatAmount(*nu.Amount)
				found = true
			}
		case "protein":
			n.Protein = Quantity(nu.Amount, nu.Unit)
			found = true
		case "fat":
			n.Fat = Quantity(nu.Amount, nu.Unit)
			found = true
		case "carbohydrates":
			n.Carbohydrates = Quantity(nu.Amount, nu.Unit)
			found = true
		}
	}
	if !found {
		return nil
	}
	return &n
}

// Quantity renders an amount and unit compactly: "20g" when the unit has no
// leading whitespace, "20 g" when it does, the unit alone without an amount,
// the bare amount without a unit, and "" when both are absent.
func Quantity(amount *float64, unit *string) string {
	var u string
	if unit != nil {
		u = *unit
	}
	switch {
	case amount == nil && strings.TrimSpace(u) == "":
		return ""
	case amount == nil:
		return strings.TrimSpace(u)
	case strings.TrimSpace(u) == "":
		return formatAmount(*amount)
	case !unicode.IsSpace([]rune(u)[0]):
		return formatAmount(*amount) + u
	default:
		return formatAmount(*amount) + " " + strings.TrimSpace(u)
	}
}

// formatAmount drops the fractional part of integral values: 20 not 20.0.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// plainText strips markup from the API's HTML summary.
func plainText(html string) string {
	if !strings.ContainsRune(html, '<') {
		return strings.TrimSpace(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
