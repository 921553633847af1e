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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recipefind/ai"
	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/corpus"
)

// Defaults for Builder options.
const (
	DefaultBatchSize  = 256
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Builder turns a raw recipe dump into a published index generation.
type Builder struct {
	provider   ai.AIProvider
	layout     *corpus.Layout
	poolSize   int
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	maxRecipes int
	progress   io.Writer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Builder.
type Option func(*Builder) error

// WithPoolSize sets the number of batches encoded concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(b *Builder) error {
		b.poolSize = max(size, 1)
		return nil
	}
}

// WithBatchSize sets the number of texts per embedding call.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		b.batchSize = size
		return nil
	}
}

// WithRetry sets how often a failing batch is attempted and the base delay
// of the exponential backoff between attempts.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(b *Builder) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		b.maxRetries = maxAttempts
		b.retryDelay = baseDelay
		return nil
	}
}

// WithMaxRecipes caps the cleaned corpus to its first n recipes.
// Zero means unlimited.
func WithMaxRecipes(n int) Option {
	return func(b *Builder) error {
		if n < 0 {
			return fmt.Errorf("max recipes must not be negative, got %d", n)
		}
		b.maxRecipes = n
		return nil
	}
}

// WithProgress sets where the progress line is written.
// Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(b *Builder) error {
		b.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithClock overrides the time source used for generation names and the
// manifest build time.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) error {
		if now != nil {
			b.now = now
		}
		return nil
	}
}

// NewBuilder creates a Builder that publishes into layout.
func NewBuilder(provider ai.AIProvider, layout *corpus.Layout, opts ...Option) (*Builder, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if layout == nil {
		return nil, errors.New("index layout required")
	}

	b := &Builder{
		provider:   provider,
		layout:     layout,
		poolSize:   max(runtime.NumCPU()/2, 1),
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		progress:   io.Discard,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "index-builder")
	return b, nil
}

// BuildReport summarizes a build.
type BuildReport struct {
	RawRows    int
	Kept       int
	Dropped    map[DropReason]int
	Dimensions int
	Model      string
	Generation string
	Elapsed    time.Duration
	Corpus     *corpus.Corpus
}

// DroppedTotal returns the number of rows left out for any reason.
func (r *BuildReport) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Build cleans the raw file, embeds every recipe and publishes the result as
// the current generation. On failure the published index is left untouched.
func (b *Builder) Build(ctx context.Context, rawPath string) (*BuildReport, error) {
	started := b.now()

	f, err := os.Open(rawPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, rawPath)
		}
		return nil, fmt.Errorf("opening raw file: %w", err)
	}
	defer f.Close()

	b.logger.Info("cleaning raw recipes", "path", rawPath)
	recipes, report, err := LoadRecipes(ctx, f, b.maxRecipes, b.logger)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, ErrEmptyCorpus
	}
	b.logger.Info("cleaned raw recipes", "raw", report.RawRows, "kept", report.Kept, "dropped", report.DroppedTotal())

	texts := make([]string, len(recipes))
	for i, r := range recipes {
		texts[i] = EmbeddingText(r)
	}

	vectors, err := b.encode(ctx, texts)
	if err != nil {
		return nil, err
	}

	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: embedder returned empty vectors", ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("%w: recipe %d has %d dimensions, expected %d",
				ErrDimensionMismatch, recipes[i].ID, len(v), dims)
		}
	}

	name, err := b.layout.NewGeneration(b.now())
	if err != nil {
		return nil, fmt.Errorf("creating generation: %w", err)
	}
	c, err := corpus.Assemble(name, recipes, vectors, b.provider.Model(), b.now())
	if err == nil {
		err = corpus.Save(ctx, b.layout, name, c)
	}
	if err == nil {
		err = b.layout.Publish(name)
	}
	if err != nil {
		if derr := b.layout.Discard(name); derr != nil {
			b.logger.Warn("failed to remove staging generation", "generation", name, "err", derr)
		}
		return nil, fmt.Errorf("writing index: %w", err)
	}

	report.Dimensions = dims
	report.Model = b.provider.Model()
	report.Generation = name
	report.Elapsed = b.now().Sub(started)
	report.Corpus = c
	b.logger.Info("index built", "generation", name, "recipes", report.Kept,
		"dimensions", dims, "elapsed", report.Elapsed)
	return report, nil
}

func (b *Builder) encode(ctx context.Context, texts []string) ([][]float32, error) {
	pool, err := ants.NewPool(b.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	progress := NewProgressTracker(b.progress, len(texts), b.batchSize)
	progress.Start()

	enc := &batchEncoder{
		embedder:  b.provider.Embedder(),
		pool:      pool,
		batchSize: b.batchSize,
		retry: RetryPolicy{
			MaxAttempts: b.maxRetries,
			BaseDelay:   b.retryDelay,
			MaxDelay:    maxRetryDelay,
		},
		progress: progress,
		logger:   b.logger,
	}
	vectors, err := enc.encode(ctx, texts)
	if err != nil {
		fmt.Fprintln(b.progress)
		return nil, fmt.Errorf("encoding recipes: %w", err)
	}
	progress.Finish()
	return vectors, nil
}

// LoadRecipes reads and cleans raw rows in file order. Rows that cannot
// become recipes are counted and skipped; ids already seen are dropped so
// the first occurrence wins. maxRecipes caps the result after filtering and
// stops reading once reached; zero means unlimited.
func LoadRecipes(ctx context.Context, r io.Reader, maxRecipes int, logger *slog.Logger) ([]*core.Recipe, *BuildReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rr, err := NewRawReader(r)
	if err != nil {
		return nil, nil, err
	}

	report := &BuildReport{Dropped: map[DropReason]int{}}
	seen := make(map[core.RecipeID]struct{})
	var recipes []*core.Recipe

	for {
		if report.RawRows%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		raw, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		report.RawRows++
		if err != nil {
			if errors.Is(err, ErrMalformedRow) {
				logger.Debug("skipping malformed row", "err", err)
				report.Dropped[DropMalformedRow]++
				continue
			}
			return nil, nil, fmt.Errorf("reading raw file: %w", err)
		}

		recipe, reason := Clean(raw, logger.With("line", raw.Line))
		if reason != DropNone {
			report.Dropped[reason]++
			continue
		}
		if _, dup := seen[recipe.ID]; dup {
			report.Dropped[DropDuplicateID]++
			continue
		}
		seen[recipe.ID] = struct{}{}

		recipes = append(recipes, recipe)
		if maxRecipes > 0 && len(recipes) == maxRecipes {
			break
		}
	}

	report.Kept = len(recipes)
	return recipes, report, nil
}
