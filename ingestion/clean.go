package ingestion

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/recipefind/core"
)

// MaxEmbeddedIngredients is the number of ingredients included in a
// recipe's embedding text.
const MaxEmbeddedIngredients = 25

// DropReason says why a raw row was left out of the corpus.
type DropReason string

const (
	DropNone          DropReason = ""
	DropBadID         DropReason = "bad_id"
	DropMissingName   DropReason = "missing_name"
	DropNoIngredients DropReason = "no_ingredients"
	DropNoSteps       DropReason = "no_steps"
	DropDuplicateID   DropReason = "duplicate_id"
	DropMalformedRow  DropReason = "malformed_row"
)

// ListOrEmpty parses a stringified list, mapping any parse failure to an
// empty slice. Failures are logged at debug level.
func ListOrEmpty(s string, logger *slog.Logger) []string {
	items, err := ParseList(s)
	if err != nil {
		if strings.TrimSpace(s) != "" && logger != nil {
			logger.Debug("treating malformed list as empty", "err", err)
		}
		return []string{}
	}
	return items
}

// Clean converts a raw row into a recipe. It returns a non-empty DropReason
// when the row cannot become a corpus record.
func Clean(raw *RawRecipe, logger *slog.Logger) (*core.Recipe, DropReason) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw.ID), 10, 64)
	if err != nil {
		return nil, DropBadID
	}

	recipe := &core.Recipe{
		ID:           core.RecipeID(id),
		Name:         raw.Name,
		Minutes:      parseNullableInt(raw.Minutes),
		NIngredients: parseNullableInt(raw.NIngredients),
		Calories:     ParseCalories(raw.Nutrition),
		Ingredients:  ListOrEmpty(raw.Ingredients, logger),
		Steps:        ListOrEmpty(raw.Steps, logger),
	}

	if err := core.ValidateRecipe(recipe); err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyName):
			return nil, DropMissingName
		case errors.Is(err, core.ErrNoIngredients):
			return nil, DropNoIngredients
		default:
			return nil, DropNoSteps
		}
	}
	return recipe, DropNone
}

// EmbeddingText is the text encoded for a recipe: its name followed by its
// first MaxEmbeddedIngredients ingredients.
func EmbeddingText(r *core.Recipe) string {
	ingredients := r.Ingredients
	if len(ingredients) > MaxEmbeddedIngredients {
		ingredients = ingredients[:MaxEmbeddedIngredients]
	}
	return r.Name + " | ingredients: " + strings.Join(ingredients, ", ")
}
