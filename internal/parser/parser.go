// Package parser reads custom recipes written as Markdown with YAML
// frontmatter.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/recipebox/internal/apperr"
	"github.com/starford/recipebox/internal/models"
)

var stepRe = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.+)$`)

// frontmatter is the YAML header of a recipe file.
type frontmatter struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Servings    int               `yaml:"servings"`
	PrepTime    int               `yaml:"prep_time"`
	Source      string            `yaml:"source"`
	SourceURL   string            `yaml:"source_url"`
	Image       string            `yaml:"image"`
	Ingredients []ingredientEntry `yaml:"ingredients"`
	Nutrition   *models.Nutrition `yaml:"nutrition"`
}

// ingredientEntry accepts either a "2 cups flour" string or a mapping with
// name, amount and unit.
type ingredientEntry struct {
	models.Ingredient
}

func (e *ingredientEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Ingredient = ParseIngredient(value.Value)
		return nil
	}
	var m struct {
		Name     string   `yaml:"name"`
		Amount   *float64 `yaml:"amount"`
		Unit     string   `yaml:"unit"`
		Original string   `yaml:"original"`
	}
	if err := value.Decode(&m); err != nil {
		return err
	}
	e.Ingredient = models.Ingredient{Name: m.Name, Amount: m.Amount, Unit: m.Unit, Original: m.Original}
	return nil
}

// ParseRecipe builds a Recipe from Markdown. The title comes from the
// frontmatter or, failing that, the first H1 heading. Numbered list items
// in the body become the instruction steps. The returned recipe has no id.
func ParseRecipe(data []byte) (models.Recipe, error) {
	block, body := splitFrontmatter(data)

	var fm frontmatter
	if block != nil {
		if err := yaml.Unmarshal(block, &fm); err != nil {
			return models.Recipe{}, fmt.Errorf("%w: frontmatter: %v", apperr.ErrInvalidInput, err)
		}
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		return models.Recipe{}, fmt.Errorf("%w: recipe has no title", apperr.ErrInvalidInput)
	}

	r := models.Recipe{
		Title:           title,
		Description:     strings.TrimSpace(fm.Description),
		Servings:        fm.Servings,
		PrepTimeMinutes: fm.PrepTime,
		SourceName:      fm.Source,
		SourceURL:       fm.SourceURL,
		ImageURL:        fm.Image,
		Ingredients:     make([]models.Ingredient, 0, len(fm.Ingredients)),
		Instructions:    extractSteps(body),
		Nutrition:       fm.Nutrition,
	}
	for _, in := range fm.Ingredients {
		if strings.TrimSpace(in.Name) == "" {
			return models.Recipe{}, fmt.Errorf("%w: ingredient without a name", apperr.ErrInvalidInput)
		}
		r.Ingredients = append(r.Ingredients, in.Ingredient)
	}
	return r, nil
}

// ParseIngredient splits "<amount> <unit> <name>". A leading amount may be
// a decimal or a simple fraction such as 1/2. Without a leading amount the
// whole text is the name.
func ParseIngredient(text string) models.Ingredient {
	text = strings.TrimSpace(text)
	in := models.Ingredient{Name: text, Original: text}

	fields := strings.Fields(text)
	if len(fields) < 2 {
		return in
	}
	amount, ok := parseAmount(fields[0])
	if !ok {
		return in
	}
	in.Amount = &amount
	if len(fields) == 2 {
		in.Name = fields[1]
		return in
	}
	in.Unit = fields[1]
	in.Name = strings.Join(fields[2:], " ")
	return in
}

func parseAmount(s string) (float64, bool) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. Without frontmatter the whole input is body.
func splitFrontmatter(data []byte) ([]byte, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	afterDelim := rest[idx+1+len(delim):]
	return rest[:idx], strings.TrimLeft(string(afterDelim), "\n\r")
}

func extractSteps(body string) []models.InstructionStep {
	steps := []models.InstructionStep{}
	for _, line := range strings.Split(body, "\n") {
		m := stepRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			n = len(steps) + 1
		}
		steps = append(steps, models.InstructionStep{Number: n, Text: strings.TrimSpace(m[2])})
	}
	return steps
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
