package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecipe(id core.RecipeID, name string) *core.Recipe {
	return &core.Recipe{
		ID:          id,
		Name:        name,
		Minutes:     core.IntPtr(10),
		Calories:    core.FloatPtr(float64(id) * 10),
		Ingredients: []string{"salt", "water"},
		Steps:       []string{"mix"},
	}
}

func TestRecipeRepository_Basics(t *testing.T) {
	recipeRepo, feedbackRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		feedbackRepo.Close()
		recipeRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	count, err := recipeRepo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// ids deliberately out of numeric order; corpus order must be preserved
	require.NoError(t, recipeRepo.AddRecipes(ctx, testRecipe(30, "c"), testRecipe(10, "a")))
	require.NoError(t, recipeRepo.AddRecipes(ctx, testRecipe(20, "b")))

	count, err = recipeRepo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := recipeRepo.AllRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, core.RecipeID(30), all[0].ID)
	assert.Equal(t, core.RecipeID(10), all[1].ID)
	assert.Equal(t, core.RecipeID(20), all[2].ID)

	got, err := recipeRepo.GetRecipe(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, testRecipe(10, "a"), got)

	_, err = recipeRepo.GetRecipe(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecipeRepository_Duplicates(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewRecipeRepository(backend)
	ctx := context.Background()

	require.NoError(t, repo.AddRecipes(ctx, testRecipe(1, "a")))

	err = repo.AddRecipes(ctx, testRecipe(1, "again"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = repo.AddRecipes(ctx, testRecipe(2, "b"), testRecipe(2, "b"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecipeRepository_LargeBatch(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewRecipeRepository(backend)
	ctx := context.Background()

	recipes := make([]*core.Recipe, 5000)
	for i := range recipes {
		recipes[i] = testRecipe(core.RecipeID(i+1), fmt.Sprintf("recipe %d", i))
	}
	require.NoError(t, repo.AddRecipes(ctx, recipes...))

	all, err := repo.AllRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(recipes))
	for i := range all {
		assert.Equal(t, recipes[i].ID, all[i].ID)
	}
}

func TestRecipeRepository_Manifest(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewRecipeRepository(backend)
	ctx := context.Background()

	_, err = repo.LoadManifest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	m := &core.Manifest{
		Count:          2,
		Dimensions:     384,
		Fingerprint:    core.Fingerprint([]core.RecipeID{1, 2}),
		EmbeddingModel: "all-minilm",
		BuiltAt:        time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, repo.SaveManifest(ctx, m))

	loaded, err := repo.LoadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestOpenRecipeRepository_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := OpenRecipeRepository(dir)
	require.NoError(t, err)
	require.NoError(t, repo.AddRecipes(ctx, testRecipe(7, "seven")))
	require.NoError(t, repo.Close())

	repo, err = OpenRecipeRepository(dir)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.GetRecipe(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "seven", got.Name)
}
