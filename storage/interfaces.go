package storage

import (
	"context"

	"github.com/poiesic/recipefind/core"
)

// RecipeRepository stores the cleaned records of one index generation in
// corpus order. Position i of AllRecipes corresponds to row i of the
// generation's embedding matrix.
type RecipeRepository interface {
	// AddRecipes appends recipes after the ones already stored, preserving order.
	// Returns ErrDuplicateKey if a recipe id is already present.
	AddRecipes(ctx context.Context, recipes ...*core.Recipe) error

	// GetRecipe retrieves a recipe by id.
	// Returns ErrNotFound if the recipe doesn't exist.
	GetRecipe(ctx context.Context, id core.RecipeID) (*core.Recipe, error)

	// AllRecipes returns every recipe in corpus order.
	AllRecipes(ctx context.Context) ([]*core.Recipe, error)

	// Count returns the number of stored recipes.
	Count(ctx context.Context) (int, error)

	// SaveManifest records the manifest of the generation.
	SaveManifest(ctx context.Context, manifest *core.Manifest) error

	// LoadManifest returns the stored manifest.
	// Returns ErrNotFound if no manifest was saved.
	LoadManifest(ctx context.Context) (*core.Manifest, error)

	// Close closes the storage backend and releases resources.
	Close() error
}

// FeedbackRepository is an append-only log of helpfulness votes.
// Implementations must be safe for concurrent use; concurrent appends must
// never interleave or lose records.
type FeedbackRepository interface {
	// AppendFeedback durably appends one record.
	AppendFeedback(ctx context.Context, record *core.FeedbackRecord) error

	// AllFeedback returns every readable record in append order.
	AllFeedback(ctx context.Context) ([]*core.FeedbackRecord, error)

	// Close releases resources.
	Close() error
}
