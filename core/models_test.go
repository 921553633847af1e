package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecipe_CaloriesOrInf(t *testing.T) {
	t.Run("known calories", func(t *testing.T) {
		r := &Recipe{Calories: FloatPtr(120.5)}
		assert.Equal(t, 120.5, r.CaloriesOrInf())
	})

	t.Run("null calories sort last", func(t *testing.T) {
		r := &Recipe{}
		assert.True(t, math.IsInf(r.CaloriesOrInf(), 1))
	})

	t.Run("nil recipe", func(t *testing.T) {
		var r *Recipe
		assert.True(t, math.IsInf(r.CaloriesOrInf(), 1))
	})
}

func TestFingerprint(t *testing.T) {
	ids := []RecipeID{137739, 31490, 112140}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Fingerprint(ids), Fingerprint(ids))
	})

	t.Run("order sensitive", func(t *testing.T) {
		reordered := []RecipeID{31490, 137739, 112140}
		assert.NotEqual(t, Fingerprint(ids), Fingerprint(reordered))
	})

	t.Run("hex encoded 32 byte digest", func(t *testing.T) {
		assert.Len(t, Fingerprint(ids), 64)
	})

	t.Run("empty sequence", func(t *testing.T) {
		assert.NotEmpty(t, Fingerprint(nil))
		assert.Equal(t, Fingerprint(nil), Fingerprint([]RecipeID{}))
	})
}

func TestPointerHelpers(t *testing.T) {
	assert.Equal(t, 42, *IntPtr(42))
	assert.Equal(t, 3.5, *FloatPtr(3.5))
}
