package matrix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/recipefind/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m, err := New(2, []core.RecipeID{5, 3}, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []float32{0, 1}, m.Row(1))

	_, err = New(2, []core.RecipeID{1}, [][]float32{{1, 0, 0}})
	assert.ErrorIs(t, err, ErrShape)

	_, err = New(2, []core.RecipeID{1, 2}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.bin")
	m, err := New(3, []core.RecipeID{10, -1, 7}, [][]float32{
		{0.5, 0.25, -1},
		{0, 0, 0},
		{1e-7, 3.4e38, -0.125},
	})
	require.NoError(t, err)

	require.NoError(t, Write(path, m))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be renamed away")
}

func TestWriteRead_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.bin")
	require.NoError(t, Write(path, &Matrix{Dims: 384}))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, 384, got.Dims)
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(dir, "nope.bin"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad magic", func(t *testing.T) {
		path := filepath.Join(dir, "bad.bin")
		require.NoError(t, os.WriteFile(path, []byte("NOTMAGIC and more bytes"), 0o644))
		_, err := Read(path)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("truncated", func(t *testing.T) {
		path := filepath.Join(dir, "trunc.bin")
		m, err := New(2, []core.RecipeID{1, 2}, [][]float32{{1, 0}, {0, 1}})
		require.NoError(t, err)
		require.NoError(t, Write(path, m))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0o644))

		_, err = Read(path)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("short header", func(t *testing.T) {
		path := filepath.Join(dir, "short.bin")
		require.NoError(t, os.WriteFile(path, []byte("RFEM"), 0o644))
		_, err := Read(path)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}
