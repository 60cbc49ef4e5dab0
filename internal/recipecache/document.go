package recipecache

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/recipebox/internal/models"
	"github.com/starford/recipebox/internal/recipekey"
)

// document is the on-disk shape of one cached recipe. Required fields are
// pointers so that a missing field can be told apart from a zero value.
type document struct {
	Title           *string           `json:"title"`
	Description     string            `json:"description,omitempty"`
	Servings        *int              `json:"servings"`
	PrepTimeMinutes *int              `json:"prep_time_minutes"`
	SourceName      *string           `json:"source_name"`
	SourceURL       *string           `json:"source_url"`
	ImageURL        string            `json:"image_url,omitempty"`
	Ingredients     []ingredientDoc   `json:"ingredients"`
	Instructions    []stepDoc         `json:"instructions"`
	Nutrition       *models.Nutrition `json:"nutrition,omitempty"`
}

type ingredientDoc struct {
	Name     *string  `json:"name"`
	Amount   *float64 `json:"amount,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Original string   `json:"original,omitempty"`
}

type stepDoc struct {
	Number *int    `json:"number"`
	Text   *string `json:"text"`
}

// Validate implements validation.Validatable.
func (d document) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Servings, validation.NotNil, validation.Min(0)),
		validation.Field(&d.PrepTimeMinutes, validation.NotNil, validation.Min(0)),
		validation.Field(&d.SourceName, validation.NotNil),
		validation.Field(&d.SourceURL, validation.NotNil),
		validation.Field(&d.Ingredients, validation.NotNil),
		validation.Field(&d.Instructions, validation.NotNil),
	)
}

// Validate implements validation.Validatable.
func (d ingredientDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (d stepDoc) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Number, validation.NotNil, validation.Min(1)),
		validation.Field(&d.Text, validation.NotNil),
	)
}

func toRecipe(id uint64, d document) models.Recipe {
	r := models.Recipe{
		ID:              id,
		Key:             recipekey.NewLocal(id).String(),
		Title:           *d.Title,
		Description:     d.Description,
		Servings:        *d.Servings,
		PrepTimeMinutes: *d.PrepTimeMinutes,
		SourceName:      *d.SourceName,
		SourceURL:       *d.SourceURL,
		ImageURL:        d.ImageURL,
		Ingredients:     make([]models.Ingredient, len(d.Ingredients)),
		Instructions:    make([]models.InstructionStep, len(d.Instructions)),
	}
	for i, in := range d.Ingredients {
		r.Ingredients[i] = models.Ingredient{Name: *in.Name, Amount: in.Amount, Unit: in.Unit, Original: in.Original}
	}
	for i, st := range d.Instructions {
		r.Instructions[i] = models.InstructionStep{Number: *st.Number, Text: *st.Text}
	}
	if d.Nutrition != nil {
		n := *d.Nutrition
		r.Nutrition = &n
	}
	return r
}

func fromRecipe(r models.Recipe) document {
	d := document{
		Title:           &r.Title,
		Description:     r.Description,
		Servings:        &r.Servings,
		PrepTimeMinutes: &r.PrepTimeMinutes,
		SourceName:      &r.SourceName,
		SourceURL:       &r.SourceURL,
		ImageURL:        r.ImageURL,
		Ingredients:     make([]ingredientDoc, len(r.Ingredients)),
		Instructions:    make([]stepDoc, len(r.Instructions)),
	}
	for i := range r.Ingredients {
		in := r.Ingredients[i]
		d.Ingredients[i] = ingredientDoc{Name: &in.Name, Amount: in.Amount, Unit: in.Unit, Original: in.Original}
	}
	for i := range r.Instructions {
		st := r.Instructions[i]
		d.Instructions[i] = stepDoc{Number: &st.Number, Text: &st.Text}
	}
	if r.Nutrition != nil {
		n := *r.Nutrition
		d.Nutrition = &n
	}
	return d
}
