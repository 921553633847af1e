package feedback

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/storage/badger"
	"github.com/poiesic/recipefind/storage/feedbacklog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookup map[core.RecipeID]*core.Recipe

func (l lookup) RecipeByID(id core.RecipeID) (*core.Recipe, bool) {
	r, ok := l[id]
	return r, ok
}

func corpusOf(ids ...core.RecipeID) lookup {
	l := lookup{}
	for _, id := range ids {
		l[id] = &core.Recipe{ID: id, Name: "recipe", Ingredients: []string{"x"}, Steps: []string{"y"}}
	}
	return l
}

func newCSVAggregator(t *testing.T, opts ...Option) (*Aggregator, *feedbacklog.Log) {
	t.Helper()
	log := feedbacklog.Open(filepath.Join(t.TempDir(), "feedback.csv"))
	t.Cleanup(func() { log.Close() })
	a, err := NewAggregator(log, opts...)
	require.NoError(t, err)
	return a, log
}

func rankedIDs(rankings []*core.FeedbackRanking) []core.RecipeID {
	ids := make([]core.RecipeID, len(rankings))
	for i, r := range rankings {
		ids[i] = r.Recipe.ID
	}
	return ids
}

func TestNewAggregator(t *testing.T) {
	_, err := NewAggregator(nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestAggregator_RoundTrip(t *testing.T) {
	ctx := context.Background()
	a, _ := newCSVAggregator(t)

	for range 3 {
		require.NoError(t, a.Record(ctx, 31490, "pizza", true))
	}

	rankings, err := a.Top(ctx, corpusOf(31490), 0)
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, core.RecipeID(31490), rankings[0].Recipe.ID)
	assert.Equal(t, 3, rankings[0].Count)
}

func TestAggregator_StampsUnixSeconds(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 30, 45, 987654321, time.UTC)
	a, log := newCSVAggregator(t, WithClock(func() time.Time { return fixed }))

	require.NoError(t, a.Record(ctx, 1, "soup", false))

	records, err := log.AllFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fixed.Truncate(time.Second), records[0].Timestamp)
	assert.False(t, records[0].Helpful)
}

func TestAggregator_NilClockKeepsDefault(t *testing.T) {
	ctx := context.Background()
	a, log := newCSVAggregator(t, WithClock(nil))

	before := time.Now().Add(-time.Second)
	require.NoError(t, a.Record(ctx, 1, "soup", true))

	records, err := log.AllFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Timestamp.After(before))
}

func TestAggregator_Top(t *testing.T) {
	ctx := context.Background()
	a, _ := newCSVAggregator(t)

	votes := []struct {
		id      core.RecipeID
		helpful bool
	}{
		{30, true}, {10, true}, {20, true}, {20, true},
		{10, true}, {40, false}, {40, false}, {50, true},
		{99, true}, {99, true}, {99, true},
	}
	for _, v := range votes {
		require.NoError(t, a.Record(ctx, v.id, "q", v.helpful))
	}
	recipes := corpusOf(10, 20, 30, 40, 50)

	t.Run("count descending then id ascending", func(t *testing.T) {
		rankings, err := a.Top(ctx, recipes, 10)
		require.NoError(t, err)
		assert.Equal(t, []core.RecipeID{10, 20, 30, 50}, rankedIDs(rankings))
		assert.Equal(t, 2, rankings[0].Count)
		assert.Equal(t, 1, rankings[2].Count)
	})

	t.Run("unhelpful votes are not counted", func(t *testing.T) {
		rankings, err := a.Top(ctx, recipes, 10)
		require.NoError(t, err)
		assert.NotContains(t, rankedIDs(rankings), core.RecipeID(40))
	})

	t.Run("unknown ids dropped after truncation", func(t *testing.T) {
		rankings, err := a.Top(ctx, recipes, 2)
		require.NoError(t, err)
		assert.Equal(t, []core.RecipeID{10}, rankedIDs(rankings), "99 takes a slot then disappears")
	})
}

func TestAggregator_Empty(t *testing.T) {
	a, _ := newCSVAggregator(t)
	rankings, err := a.Top(context.Background(), corpusOf(1), 10)
	require.NoError(t, err)
	assert.NotNil(t, rankings)
	assert.Empty(t, rankings)
}

func TestAggregator_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	a, _ := newCSVAggregator(t)

	ids := make([]core.RecipeID, 15)
	for i := range ids {
		ids[i] = core.RecipeID(i + 1)
		require.NoError(t, a.Record(ctx, ids[i], "q", true))
	}
	rankings, err := a.Top(ctx, corpusOf(ids...), 0)
	require.NoError(t, err)
	assert.Len(t, rankings, DefaultLimit)
	assert.Equal(t, ids[:DefaultLimit], rankedIDs(rankings))
}

func TestAggregator_BadgerRepository(t *testing.T) {
	ctx := context.Background()
	_, repo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	a, err := NewAggregator(repo)
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, a.Record(ctx, 7, "stew", true))
	}
	require.NoError(t, a.Record(ctx, 8, "stew", true))

	rankings, err := a.Top(ctx, corpusOf(7, 8), 0)
	require.NoError(t, err)
	assert.Equal(t, []core.RecipeID{7, 8}, rankedIDs(rankings))
	assert.Equal(t, 3, rankings[0].Count)
}

type failingRepository struct{ err error }

func (f failingRepository) AppendFeedback(context.Context, *core.FeedbackRecord) error { return f.err }
func (f failingRepository) AllFeedback(context.Context) ([]*core.FeedbackRecord, error) {
	return nil, f.err
}
func (f failingRepository) Close() error { return nil }

func TestAggregator_RepositoryErrors(t *testing.T) {
	cause := errors.New("disk full")
	a, err := NewAggregator(failingRepository{err: cause})
	require.NoError(t, err)

	assert.ErrorIs(t, a.Record(context.Background(), 1, "q", true), cause)
	_, err = a.Top(context.Background(), corpusOf(1), 0)
	assert.ErrorIs(t, err, cause)
}
