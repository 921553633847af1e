package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/storage"
)

var errTruncatedPosition = fmt.Errorf("%w: position", storage.ErrTruncatedData)

// RecipeRepository implements storage.RecipeRepository for BadgerDB.
// Recipes are keyed by corpus position, with a secondary id index.
type RecipeRepository struct {
	backend *Backend
	owned   bool
	mu      sync.Mutex
}

var _ storage.RecipeRepository = (*RecipeRepository)(nil)

// NewRecipeRepository creates a RecipeRepository on an open backend.
// Closing the repository leaves the backend open.
func NewRecipeRepository(backend *Backend) *RecipeRepository {
	return &RecipeRepository{backend: backend}
}

// OpenRecipeRepository opens the database at path and returns a repository
// that owns it.
func OpenRecipeRepository(path string) (storage.RecipeRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return &RecipeRepository{backend: backend, owned: true}, nil
}

// OpenReadOnlyRecipeRepository opens the existing database at path for
// reading. Writes through the returned repository fail.
func OpenReadOnlyRecipeRepository(path string) (storage.RecipeRepository, error) {
	backend, err := OpenReadOnlyBackend(path)
	if err != nil {
		return nil, err
	}
	return &RecipeRepository{backend: backend, owned: true}, nil
}

// Close closes the backend if the repository owns it.
func (r *RecipeRepository) Close() error {
	if r.owned {
		return r.backend.Close()
	}
	return nil
}

// AddRecipes appends recipes after the stored ones in a single write batch.
func (r *RecipeRepository) AddRecipes(ctx context.Context, recipes ...*core.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	seen := make(map[core.RecipeID]struct{}, len(recipes))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		if count, err = readCount(tx); err != nil {
			return err
		}
		for _, recipe := range recipes {
			if _, dup := seen[recipe.ID]; dup {
				return fmt.Errorf("%w: recipe %d", storage.ErrDuplicateKey, recipe.ID)
			}
			seen[recipe.ID] = struct{}{}
			_, err := tx.Get(makeRecipeIDKey(recipe.ID))
			if err == nil {
				return fmt.Errorf("%w: recipe %d", storage.ErrDuplicateKey, recipe.ID)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i, recipe := range recipes {
			if err := ctx.Err(); err != nil {
				return err
			}
			position := count + i
			if err := wb.Set(makeRecipeKey(position), storage.MarshalRecipe(recipe)); err != nil {
				return err
			}
			if err := wb.Set(makeRecipeIDKey(recipe.ID), encodePosition(position)); err != nil {
				return err
			}
		}
		return wb.Set([]byte(recipeCountKey), encodePosition(count+len(recipes)))
	})
}

// GetRecipe retrieves a recipe by id.
func (r *RecipeRepository) GetRecipe(ctx context.Context, id core.RecipeID) (*core.Recipe, error) {
	var recipe *core.Recipe
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		position, err := getValue(tx, makeRecipeIDKey(id), decodePosition)
		if err != nil {
			return err
		}
		recipe, err = getValue(tx, makeRecipeKey(position), storage.UnmarshalRecipe)
		return err
	}, false)
	return recipe, err
}

// AllRecipes returns every recipe in corpus order.
func (r *RecipeRepository) AllRecipes(ctx context.Context) ([]*core.Recipe, error) {
	var recipes []*core.Recipe
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		recipes, err = scanPrefix(tx, []byte(recipePrefix), storage.UnmarshalRecipe)
		return err
	}, false)
	return recipes, err
}

// Count returns the number of stored recipes.
func (r *RecipeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		count, err = readCount(tx)
		return err
	}, false)
	return count, err
}

// SaveManifest records the manifest of the generation.
func (r *RecipeRepository) SaveManifest(ctx context.Context, manifest *core.Manifest) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(manifestKey), storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadManifest returns the stored manifest.
func (r *RecipeRepository) LoadManifest(ctx context.Context) (*core.Manifest, error) {
	var manifest *core.Manifest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		manifest, err = getValue(tx, []byte(manifestKey), storage.UnmarshalManifest)
		return err
	}, false)
	return manifest, err
}

func readCount(tx *badger.Txn) (int, error) {
	count, err := getValue(tx, []byte(recipeCountKey), decodePosition)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	return count, err
}
