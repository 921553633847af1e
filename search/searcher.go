package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/recipefind/ai"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/corpus"
)

// Defaults for Searcher options.
const (
	DefaultTopK         = 12
	DefaultMinOverlap   = 0
	DefaultEmbedTimeout = 10 * time.Second
)

// Searcher answers recipe queries. It holds no corpus of its own so that a
// reloaded corpus can be searched by the same Searcher.
type Searcher struct {
	embedder     ai.Embedder
	refiner      Refiner
	embedTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTopK sets the maximum number of results per query.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k < 1 || k > CandidatePoolSize {
			return fmt.Errorf("top k must be between 1 and %d, got %d", CandidatePoolSize, k)
		}
		s.refiner.TopK = k
		return nil
	}
}

// WithMinOverlap sets the minimum number of query tokens a result's
// ingredients must contain. Zero disables the filter.
func WithMinOverlap(n int) Option {
	return func(s *Searcher) error {
		if n < 0 {
			return fmt.Errorf("min overlap must not be negative, got %d", n)
		}
		s.refiner.MinOverlap = n
		return nil
	}
}

// WithEmbedTimeout bounds the time spent embedding one query.
// Zero means no timeout beyond the caller's context.
func WithEmbedTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d < 0 {
			return fmt.Errorf("embed timeout must not be negative, got %s", d)
		}
		s.embedTimeout = d
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		embedder:     provider.Embedder(),
		refiner:      Refiner{TopK: DefaultTopK, MinOverlap: DefaultMinOverlap},
		embedTimeout: DefaultEmbedTimeout,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// TopK returns the maximum number of results per query.
func (s *Searcher) TopK() int {
	return s.refiner.TopK
}

// MinOverlap returns the configured ingredient overlap threshold.
func (s *Searcher) MinOverlap() int {
	return s.refiner.MinOverlap
}

// Search returns up to TopK recipes from c matching query. When healthy is
// set, lower-calorie recipes are preferred among the relevant ones.
// A blank query returns no results without calling the embedder.
func (s *Searcher) Search(ctx context.Context, c *corpus.Corpus, query string, healthy bool) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, c, query, healthy, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, c *corpus.Corpus, query string, healthy bool, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if c == nil {
		return nil, ErrCorpusRequired
	}

	monitor.Start(query, healthy)

	query = strings.TrimSpace(query)
	if query == "" {
		results := []*core.SearchResult{}
		monitor.Finish(results)
		return results, nil
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	monitor.AfterEmbedding(len(vector))

	candidates, err := Rank(vector, c.Matrix(), CandidatePoolSize)
	if err != nil {
		s.logger.Error("error ranking corpus", "err", err)
		return nil, err
	}
	monitor.AfterRanking(candidates)

	candidates = s.refiner.Refine(candidates, c, query, healthy, monitor)
	results := Enrich(candidates, c)
	monitor.Finish(results)

	s.logger.Debug("search complete", "query", query, "healthy", healthy, "results", len(results))
	return results, nil
}

func (s *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err == nil && len(vector) == 0 {
		err = errors.New("embedder returned an empty vector")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w (%w)", err, ctxErr)
		}
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return core.NormalizeVector(vector), nil
}
