// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package recipefind ties the recipe corpus, the embedding provider, the
// searcher and the feedback log into a single Index value.
package recipefind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/poiesic/recipefind/ai"
	"github.com/poiesic/recipefind/ai/local"
	"github.com/poiesic/recipefind/ai/openai"
	"github.com/poiesic/recipefind/config"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/corpus"
	"github.com/poiesic/recipefind/feedback"
	"github.com/poiesic/recipefind/ingestion"
	"github.com/poiesic/recipefind/search"
	"github.com/poiesic/recipefind/storage"
	"github.com/poiesic/recipefind/storage/badger"
	"github.com/poiesic/recipefind/storage/feedbacklog"
)

// Index is the read-mostly search service over one published corpus
// generation. It is safe for concurrent use.
type Index struct {
	layout     *corpus.Layout
	corpus     atomic.Pointer[corpus.Corpus]
	provider   ai.AIProvider
	searcher   *search.Searcher
	feedback   storage.FeedbackRepository
	aggregator *feedback.Aggregator
	logger     *slog.Logger

	ownsProvider bool
	ownsFeedback bool
}

// Option configures an Index.
type Option func(*options)

type options struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	searchOptions []search.Option
	feedbackRepo  storage.FeedbackRepository
	feedbackStore string
	logger        *slog.Logger
}

// WithAIConfig sets the embedding provider configuration.
func WithAIConfig(cfg *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = cfg
	}
}

// WithProvider uses an existing provider. The Index does not close it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithSearchOptions passes options through to the searcher.
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *options) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithFeedbackRepository uses an existing feedback store. The Index does not close it.
func WithFeedbackRepository(repo storage.FeedbackRepository) Option {
	return func(o *options) {
		o.feedbackRepo = repo
	}
}

// WithFeedbackStore selects the feedback store kind opened under the data
// directory: config.FeedbackStoreCSV (default) or config.FeedbackStoreBadger.
func WithFeedbackStore(kind string) Option {
	return func(o *options) {
		o.feedbackStore = kind
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewProvider creates the embedding provider selected by cfg.Backend.
func NewProvider(cfg *ai.Config) (ai.AIProvider, error) {
	if cfg == nil {
		cfg = ai.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case ai.BackendLocal:
		return local.NewProvider(cfg)
	default:
		return openai.NewProvider(cfg)
	}
}

// Open loads the current index generation under dataDir and prepares it for
// searching. It fails with corpus.ErrIndexMissing when nothing was built yet.
func Open(ctx context.Context, dataDir string, opts ...Option) (*Index, error) {
	options := &options{
		aiConfig:      ai.DefaultConfig(),
		feedbackStore: config.FeedbackStoreCSV,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger.With("component", "index")

	layout := corpus.NewLayout(dataDir)
	c, err := corpus.Load(ctx, layout)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		layout:   layout,
		provider: options.provider,
		feedback: options.feedbackRepo,
		logger:   logger,
	}
	idx.corpus.Store(c)

	if idx.provider == nil {
		idx.provider, err = NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
		idx.ownsProvider = true
	}
	if model := idx.provider.Model(); model != c.Manifest().EmbeddingModel {
		logger.Warn("embedding model differs from the one the index was built with",
			"index", c.Manifest().EmbeddingModel, "provider", model)
	}

	searchOpts := append([]search.Option{search.WithLogger(options.logger)}, options.searchOptions...)
	idx.searcher, err = search.NewSearcher(idx.provider, searchOpts...)
	if err != nil {
		idx.Close()
		return nil, err
	}

	if idx.feedback == nil {
		idx.feedback, err = openFeedback(dataDir, options.feedbackStore, options.logger)
		if err != nil {
			idx.Close()
			return nil, err
		}
		idx.ownsFeedback = true
	}

	idx.aggregator, err = feedback.NewAggregator(idx.feedback, feedback.WithLogger(options.logger))
	if err != nil {
		idx.Close()
		return nil, err
	}

	logger.Info("index opened", "generation", c.Generation(), "recipes", c.Len(), "dimensions", c.Dimensions())
	return idx, nil
}

// OpenFromConfig opens the index described by cfg.
func OpenFromConfig(ctx context.Context, cfg config.Config, opts ...Option) (*Index, error) {
	base := []Option{
		WithAIConfig(cfg.AIConfig()),
		WithFeedbackStore(cfg.FeedbackStore),
		WithSearchOptions(
			search.WithTopK(cfg.TopK),
			search.WithMinOverlap(cfg.MinOverlap),
			search.WithEmbedTimeout(cfg.EmbedTimeout),
		),
	}
	return Open(ctx, cfg.DataDir, append(base, opts...)...)
}

func openFeedback(dataDir, kind string, logger *slog.Logger) (storage.FeedbackRepository, error) {
	paths := config.Config{DataDir: dataDir}
	switch strings.ToLower(kind) {
	case "", config.FeedbackStoreCSV:
		return feedbacklog.Open(paths.FeedbackPath(), feedbacklog.WithLogger(logger)), nil
	case config.FeedbackStoreBadger:
		return badger.OpenFeedbackRepository(paths.FeedbackDBPath())
	default:
		return nil, fmt.Errorf("unknown feedback store %q", kind)
	}
}

// NewBuilder returns an index builder publishing into dataDir.
func NewBuilder(dataDir string, provider ai.AIProvider, opts ...ingestion.Option) (*ingestion.Builder, error) {
	return ingestion.NewBuilder(provider, corpus.NewLayout(dataDir), opts...)
}

// Corpus returns the corpus currently served.
func (idx *Index) Corpus() *corpus.Corpus {
	return idx.corpus.Load()
}

// Search returns the best matching recipes for query.
func (idx *Index) Search(ctx context.Context, query string, healthy bool) ([]*core.SearchResult, error) {
	return idx.searcher.Search(ctx, idx.corpus.Load(), query, healthy)
}

// SearchWithMonitor is Search with stage callbacks.
func (idx *Index) SearchWithMonitor(ctx context.Context, query string, healthy bool, monitor search.SearchMonitor) ([]*core.SearchResult, error) {
	return idx.searcher.SearchWithMonitor(ctx, idx.corpus.Load(), query, healthy, monitor)
}

// RecipeByID returns the recipe with the given id.
func (idx *Index) RecipeByID(id core.RecipeID) (*core.Recipe, bool) {
	return idx.corpus.Load().RecipeByID(id)
}

// Recipe returns the recipe with the given id or core.ErrRecipeNotFound.
func (idx *Index) Recipe(id core.RecipeID) (*core.Recipe, error) {
	recipe, ok := idx.RecipeByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", core.ErrRecipeNotFound, id)
	}
	return recipe, nil
}

// SubmitFeedback records a helpfulness vote. The recipe does not have to exist.
func (idx *Index) SubmitFeedback(ctx context.Context, id core.RecipeID, query string, helpful bool) error {
	return idx.aggregator.Record(ctx, id, query, helpful)
}

// TopFeedback returns the recipes with the most helpful votes.
func (idx *Index) TopFeedback(ctx context.Context, limit int) ([]*core.FeedbackRanking, error) {
	return idx.aggregator.Top(ctx, idx.corpus.Load(), limit)
}

// Stats describes the served generation.
type Stats struct {
	Generation string
	Recipes    int
	Dimensions int
	Model      string
	BuiltAt    time.Time
}

// Stats returns a description of the served generation.
func (idx *Index) Stats() Stats {
	c := idx.corpus.Load()
	return Stats{
		Generation: c.Generation(),
		Recipes:    c.Len(),
		Dimensions: c.Dimensions(),
		Model:      c.Manifest().EmbeddingModel,
		BuiltAt:    c.Manifest().BuiltAt,
	}
}

// Reload loads the current generation and serves it from now on. Searches
// already running finish on the corpus they started with.
func (idx *Index) Reload(ctx context.Context) error {
	c, err := corpus.Load(ctx, idx.layout)
	if err != nil {
		idx.logger.Error("error reloading index", "err", err)
		return err
	}
	old := idx.corpus.Swap(c)
	idx.logger.Info("index reloaded", "from", old.Generation(), "to", c.Generation(), "recipes", c.Len())
	return nil
}

// Close releases the provider and feedback store if the Index opened them.
func (idx *Index) Close() error {
	var errs []error
	if idx.ownsProvider && idx.provider != nil {
		if err := idx.provider.Close(); err != nil {
			idx.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if idx.ownsFeedback && idx.feedback != nil {
		if err := idx.feedback.Close(); err != nil {
			idx.logger.Error("error closing feedback store", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
