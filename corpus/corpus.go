package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/storage"
	"github.com/poiesic/recipefind/storage/badger"
	"github.com/poiesic/recipefind/storage/matrix"
)

// saveChunk bounds the number of recipes handed to one AddRecipes call.
const saveChunk = 10000

// Corpus is one loaded index generation: the cleaned recipes and their
// embedding rows, joined by position.
type Corpus struct {
	generation string
	manifest   *core.Manifest
	recipes    []*core.Recipe
	positions  map[core.RecipeID]int
	matrix     *matrix.Matrix
}

// New assembles a corpus and verifies that recipes, matrix and manifest
// describe the same rows in the same order.
func New(generation string, recipes []*core.Recipe, m *matrix.Matrix, manifest *core.Manifest) (*Corpus, error) {
	if m == nil || manifest == nil {
		return nil, fmt.Errorf("%w: matrix and manifest are required", ErrIndexCorrupt)
	}
	if len(recipes) != m.Len() || manifest.Count != len(recipes) {
		return nil, fmt.Errorf("%w: %d recipes, %d embedding rows, manifest count %d",
			ErrIndexCorrupt, len(recipes), m.Len(), manifest.Count)
	}
	if manifest.Dimensions != m.Dims {
		return nil, fmt.Errorf("%w: manifest dimensions %d, matrix dimensions %d",
			ErrIndexCorrupt, manifest.Dimensions, m.Dims)
	}

	positions := make(map[core.RecipeID]int, len(recipes))
	for i, r := range recipes {
		if r.ID != m.IDs[i] {
			return nil, fmt.Errorf("%w: row %d holds recipe %d but embedding %d",
				ErrIndexCorrupt, i, r.ID, m.IDs[i])
		}
		if _, dup := positions[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate recipe id %d", ErrIndexCorrupt, r.ID)
		}
		positions[r.ID] = i
	}
	if fp := core.Fingerprint(m.IDs); fp != manifest.Fingerprint {
		return nil, fmt.Errorf("%w: fingerprint %s does not match manifest %s",
			ErrIndexCorrupt, fp, manifest.Fingerprint)
	}

	return &Corpus{
		generation: generation,
		manifest:   manifest,
		recipes:    recipes,
		positions:  positions,
		matrix:     m,
	}, nil
}

// Load reads the current generation.
func Load(ctx context.Context, layout *Layout) (*Corpus, error) {
	name, err := layout.Current()
	if err != nil {
		return nil, err
	}
	return LoadGeneration(ctx, layout, name)
}

// LoadGeneration reads the named generation. The record store is opened
// read-only and closed before returning; the corpus lives entirely in memory.
func LoadGeneration(ctx context.Context, layout *Layout, name string) (*Corpus, error) {
	for _, p := range []string{layout.RecipesPath(name), layout.EmbeddingsPath(name)} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: generation %s lacks %s", ErrIndexMissing, name, p)
			}
			return nil, err
		}
	}

	repo, err := badger.OpenReadOnlyRecipeRepository(layout.RecipesPath(name))
	if err != nil {
		return nil, fmt.Errorf("opening recipe store: %w", err)
	}
	defer repo.Close()

	manifest, err := repo.LoadManifest(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: generation %s has no manifest", ErrIndexCorrupt, name)
		}
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	recipes, err := repo.AllRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading recipes: %w", err)
	}

	m, err := matrix.Read(layout.EmbeddingsPath(name))
	if err != nil {
		if errors.Is(err, matrix.ErrCorrupt) || errors.Is(err, matrix.ErrBadMagic) {
			return nil, fmt.Errorf("%w: %w", ErrIndexCorrupt, err)
		}
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}

	return New(name, recipes, m, manifest)
}

// Save writes the corpus artifacts into the named generation directory.
// It does not publish the generation.
func Save(ctx context.Context, layout *Layout, name string, c *Corpus) error {
	repo, err := badger.OpenRecipeRepository(layout.RecipesPath(name))
	if err != nil {
		return fmt.Errorf("opening recipe store: %w", err)
	}

	for start := 0; start < len(c.recipes); start += saveChunk {
		end := min(start+saveChunk, len(c.recipes))
		if err := repo.AddRecipes(ctx, c.recipes[start:end]...); err != nil {
			repo.Close()
			return fmt.Errorf("storing recipes: %w", err)
		}
	}
	if err := repo.SaveManifest(ctx, c.manifest); err != nil {
		repo.Close()
		return fmt.Errorf("storing manifest: %w", err)
	}
	if err := repo.Close(); err != nil {
		return fmt.Errorf("closing recipe store: %w", err)
	}

	if err := matrix.Write(layout.EmbeddingsPath(name), c.matrix); err != nil {
		return fmt.Errorf("writing embeddings: %w", err)
	}
	return nil
}

// Generation returns the name of the generation the corpus was loaded from.
func (c *Corpus) Generation() string {
	return c.generation
}

// Manifest returns the generation manifest.
func (c *Corpus) Manifest() *core.Manifest {
	return c.manifest
}

// Len returns the number of recipes.
func (c *Corpus) Len() int {
	return len(c.recipes)
}

// Dimensions returns the embedding dimensionality.
func (c *Corpus) Dimensions() int {
	return c.matrix.Dims
}

// Matrix returns the embedding matrix. It must not be modified.
func (c *Corpus) Matrix() *matrix.Matrix {
	return c.matrix
}

// Vector returns the embedding at position i.
func (c *Corpus) Vector(i int) []float32 {
	return c.matrix.Row(i)
}

// Recipe returns the recipe at position i.
func (c *Corpus) Recipe(i int) *core.Recipe {
	return c.recipes[i]
}

// Recipes returns every recipe in corpus order. The slice must not be modified.
func (c *Corpus) Recipes() []*core.Recipe {
	return c.recipes
}

// Position returns the corpus position of id.
func (c *Corpus) Position(id core.RecipeID) (int, bool) {
	i, ok := c.positions[id]
	return i, ok
}

// RecipeByID returns the recipe with the given id.
func (c *Corpus) RecipeByID(id core.RecipeID) (*core.Recipe, bool) {
	i, ok := c.positions[id]
	if !ok {
		return nil, false
	}
	return c.recipes[i], true
}

// Assemble packs recipes and their vectors, in corpus order, into a corpus
// with a fresh manifest.
func Assemble(generation string, recipes []*core.Recipe, vectors [][]float32, model string, builtAt time.Time) (*Corpus, error) {
	ids := make([]core.RecipeID, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	m, err := matrix.New(dims, ids, vectors)
	if err != nil {
		return nil, err
	}
	manifest := &core.Manifest{
		Count:          len(recipes),
		Dimensions:     dims,
		Fingerprint:    core.Fingerprint(ids),
		EmbeddingModel: model,
		BuiltAt:        builtAt.UTC(),
	}
	return New(generation, recipes, m, manifest)
}
