package search

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/poiesic/recipefind/ai/mock"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withSimilarity returns a unit vector whose dot product with (1, 0) is s.
func withSimilarity(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(1 - s*s))}
}

func newCorpus(t *testing.T, recipes []*core.Recipe, vectors [][]float32) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Assemble("test", recipes, vectors, mock.ModelName, time.Now())
	require.NoError(t, err)
	return c
}

func fixedQueryProvider(vector []float32) (*mock.MockProvider, *mock.MockEmbedder) {
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	})
	return mock.NewMockProviderWithEmbedder(embedder), embedder
}

func resultIDs(results []*core.SearchResult) []core.RecipeID {
	ids := make([]core.RecipeID, len(results))
	for i, r := range results {
		ids[i] = r.Recipe.ID
	}
	return ids
}

func TestNewSearcher(t *testing.T) {
	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(provider)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, searcher.TopK())
		assert.Equal(t, DefaultMinOverlap, searcher.MinOverlap())
	})

	t.Run("with options", func(t *testing.T) {
		searcher, err := NewSearcher(provider, WithLogger(slog.Default()), WithTopK(5), WithMinOverlap(2), WithEmbedTimeout(time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5, searcher.TopK())
		assert.Equal(t, 2, searcher.MinOverlap())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewSearcher(provider, WithTopK(0))
		assert.Error(t, err)
		_, err = NewSearcher(provider, WithTopK(CandidatePoolSize+1))
		assert.Error(t, err)
		_, err = NewSearcher(provider, WithMinOverlap(-1))
		assert.Error(t, err)
		_, err = NewSearcher(provider, WithEmbedTimeout(-time.Second))
		assert.Error(t, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewSearcher(nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestSearch_HealthyReordersByCalories(t *testing.T) {
	recipes := []*core.Recipe{
		{ID: 1, Name: "A", Calories: core.FloatPtr(100), Ingredients: []string{"x"}, Steps: []string{"y"}},
		{ID: 2, Name: "B", Calories: core.FloatPtr(50), Ingredients: []string{"x"}, Steps: []string{"y"}},
	}
	c := newCorpus(t, recipes, [][]float32{withSimilarity(0.9), withSimilarity(0.8)})
	provider, _ := fixedQueryProvider([]float32{1, 0})

	searcher, err := NewSearcher(provider)
	require.NoError(t, err)
	ctx := context.Background()

	results, err := searcher.Search(ctx, c, "squash", false)
	require.NoError(t, err)
	assert.Equal(t, []core.RecipeID{1, 2}, resultIDs(results))
	assert.InDelta(t, 0.9, results[0].Score, 1e-5)
	assert.InDelta(t, 0.8, results[1].Score, 1e-5)

	results, err = searcher.Search(ctx, c, "squash", true)
	require.NoError(t, err)
	assert.Equal(t, []core.RecipeID{2, 1}, resultIDs(results))
}

func TestSearch_UnknownCaloriesSortLast(t *testing.T) {
	recipes := []*core.Recipe{
		{ID: 3, Name: "C", Calories: nil, Ingredients: []string{"x"}, Steps: []string{"y"}},
		{ID: 4, Name: "D", Calories: core.FloatPtr(10), Ingredients: []string{"x"}, Steps: []string{"y"}},
	}
	provider, _ := fixedQueryProvider([]float32{1, 0})
	searcher, err := NewSearcher(provider)
	require.NoError(t, err)

	for _, sims := range [][2]float64{{0.9, 0.2}, {0.2, 0.9}} {
		c := newCorpus(t, recipes, [][]float32{withSimilarity(sims[0]), withSimilarity(sims[1])})
		results, err := searcher.Search(context.Background(), c, "stew", true)
		require.NoError(t, err)
		assert.Equal(t, []core.RecipeID{4, 3}, resultIDs(results))
	}
}

func TestSearch_MinOverlap(t *testing.T) {
	recipes := []*core.Recipe{
		{ID: 1, Name: "custard", Ingredients: []string{"milk", "sugar"}, Steps: []string{"y"}},
		{ID: 2, Name: "meringue", Ingredients: []string{"egg", "sugar"}, Steps: []string{"y"}},
	}
	c := newCorpus(t, recipes, [][]float32{withSimilarity(0.9), withSimilarity(0.5)})
	provider, _ := fixedQueryProvider([]float32{1, 0})

	searcher, err := NewSearcher(provider, WithMinOverlap(1))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), c, "egg, flour", false)
	require.NoError(t, err)
	assert.Equal(t, []core.RecipeID{2}, resultIDs(results))
}

func TestSearch_TopKBound(t *testing.T) {
	recipes := make([]*core.Recipe, 40)
	vectors := make([][]float32, 40)
	for i := range recipes {
		recipes[i] = &core.Recipe{ID: core.RecipeID(i + 1), Name: "r", Ingredients: []string{"x"}, Steps: []string{"y"}}
		vectors[i] = mock.GenerateDeterministicVector(string(rune('a'+i)), 16)
	}
	c := newCorpus(t, recipes, vectors)

	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 16
	searcher, err := NewSearcher(mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)

	for _, healthy := range []bool{false, true} {
		results, err := searcher.Search(context.Background(), c, "anything", healthy)
		require.NoError(t, err)
		assert.Len(t, results, DefaultTopK)
	}
}

func TestSearch_EmptyQuerySkipsEmbedding(t *testing.T) {
	c := newCorpus(t,
		[]*core.Recipe{{ID: 1, Name: "a", Ingredients: []string{"x"}, Steps: []string{"y"}}},
		[][]float32{{1, 0}})
	provider, embedder := fixedQueryProvider([]float32{1, 0})
	searcher, err := NewSearcher(provider)
	require.NoError(t, err)

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := searcher.Search(context.Background(), c, q, true)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
	assert.Equal(t, 0, embedder.CallCount())
}

func TestSearch_Errors(t *testing.T) {
	c := newCorpus(t,
		[]*core.Recipe{{ID: 1, Name: "a", Ingredients: []string{"x"}, Steps: []string{"y"}}},
		[][]float32{{1, 0}})

	t.Run("nil corpus", func(t *testing.T) {
		searcher, err := NewSearcher(mock.NewMockProvider())
		require.NoError(t, err)
		_, err = searcher.Search(context.Background(), nil, "soup", false)
		assert.ErrorIs(t, err, ErrCorpusRequired)
	})

	t.Run("embedder failure", func(t *testing.T) {
		cause := errors.New("connection refused")
		embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
			return nil, cause
		})
		searcher, err := NewSearcher(mock.NewMockProviderWithEmbedder(embedder))
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), c, "soup", false)
		assert.ErrorIs(t, err, ErrEmbedding)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("embedder timeout", func(t *testing.T) {
		embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
		searcher, err := NewSearcher(mock.NewMockProviderWithEmbedder(embedder), WithEmbedTimeout(20*time.Millisecond))
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), c, "soup", false)
		assert.ErrorIs(t, err, ErrEmbedding)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		provider, _ := fixedQueryProvider([]float32{1, 0, 0})
		searcher, err := NewSearcher(provider)
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), c, "soup", false)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

type stageMonitor struct {
	stages     []string
	dimensions int
	ranked     int
	results    int
}

func (m *stageMonitor) Start(_ string, _ bool) { m.stages = append(m.stages, "start") }

func (m *stageMonitor) AfterEmbedding(d int) {
	m.stages = append(m.stages, "embed")
	m.dimensions = d
}

func (m *stageMonitor) AfterRanking(c []Candidate) {
	m.stages = append(m.stages, "rank")
	m.ranked = len(c)
}

func (m *stageMonitor) AfterOverlapFilter(_ []Candidate) { m.stages = append(m.stages, "overlap") }

func (m *stageMonitor) AfterHealthRerank(_ []Candidate) { m.stages = append(m.stages, "health") }

func (m *stageMonitor) Finish(r []*core.SearchResult) {
	m.stages = append(m.stages, "finish")
	m.results = len(r)
}

func TestSearchWithMonitor(t *testing.T) {
	recipes := []*core.Recipe{
		{ID: 1, Name: "a", Ingredients: []string{"x"}, Steps: []string{"y"}},
		{ID: 2, Name: "b", Ingredients: []string{"x"}, Steps: []string{"y"}},
	}
	c := newCorpus(t, recipes, [][]float32{withSimilarity(0.3), withSimilarity(0.6)})
	provider, _ := fixedQueryProvider([]float32{2, 0})
	searcher, err := NewSearcher(provider)
	require.NoError(t, err)

	monitor := &stageMonitor{}
	results, err := searcher.SearchWithMonitor(context.Background(), c, "x", true, monitor)
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "embed", "rank", "overlap", "health", "finish"}, monitor.stages)
	assert.Equal(t, 2, monitor.dimensions)
	assert.Equal(t, 2, monitor.ranked)
	assert.Equal(t, 2, monitor.results)

	// query vectors are normalized before scoring
	assert.InDelta(t, 0.6, results[0].Score, 1e-5)
}
