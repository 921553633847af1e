package badger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recipefind/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := OpenBackend(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestOpenReadOnlyBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := OpenRecipeRepository(dir)
	require.NoError(t, err)
	require.NoError(t, repo.AddRecipes(ctx, testRecipe(7, "seven")))
	require.NoError(t, repo.Close())

	first, err := OpenReadOnlyRecipeRepository(dir)
	require.NoError(t, err)
	defer first.Close()
	second, err := OpenReadOnlyRecipeRepository(dir)
	require.NoError(t, err, "read-only handles share the directory")
	defer second.Close()

	for _, r := range []storage.RecipeRepository{first, second} {
		got, err := r.GetRecipe(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "seven", got.Name)
	}
}

func TestOpenReadOnlyBackend_Missing(t *testing.T) {
	_, err := OpenReadOnlyBackend(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithBatch(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	t.Run("flushes on success", func(t *testing.T) {
		err := backend.WithBatch(func(wb *badger.WriteBatch) error {
			return wb.Set([]byte("k"), []byte("v"))
		})
		require.NoError(t, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("k"))
			return err
		}, false)
		assert.NoError(t, err)
	})

	t.Run("cancels on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := backend.WithBatch(func(wb *badger.WriteBatch) error {
			if err := wb.Set([]byte("never"), []byte("v")); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get([]byte("never"))
			return err
		}, false)
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}

func TestGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("test_sequence")
	require.NoError(t, err)
	require.NotNil(t, seq)
	defer seq.Release()

	id1, err := seq.Next()
	require.NoError(t, err)

	id2, err := seq.Next()
	require.NoError(t, err)

	assert.Greater(t, id2, id1)
}

func TestKeysSortNumerically(t *testing.T) {
	assert.Less(t, string(makeRecipeKey(9)), string(makeRecipeKey(10)))
	assert.Less(t, string(makeRecipeKey(255)), string(makeRecipeKey(256)))
	assert.Less(t, string(makeFeedbackKey(1)), string(makeFeedbackKey(1000)))
}
