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


package feedback

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/storage"
)

// DefaultLimit is the number of rankings Top returns when no limit is given.
const DefaultLimit = 10

// ErrRepositoryRequired is returned when no feedback repository is provided.
var ErrRepositoryRequired = errors.New("feedback repository required")

// RecipeLookup resolves recipe ids against the current corpus.
type RecipeLookup interface {
	RecipeByID(id core.RecipeID) (*core.Recipe, bool)
}

// Aggregator records votes and computes the most-helpful ranking.
type Aggregator struct {
	repository storage.FeedbackRepository
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAggregator creates an aggregator over repository.
func NewAggregator(repository storage.FeedbackRepository, opts ...Option) (*Aggregator, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	a := &Aggregator{
		repository: repository,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "feedback")
	return a, nil
}

// Record appends one vote stamped with the current Unix second.
func (a *Aggregator) Record(ctx context.Context, recipeID core.RecipeID, query string, helpful bool) error {
	record := &core.FeedbackRecord{
		Timestamp: time.Unix(a.now().Unix(), 0).UTC(),
		RecipeID:  recipeID,
		Query:     query,
		Helpful:   helpful,
	}
	if err := core.ValidateFeedback(record); err != nil {
		return err
	}
	if err := a.repository.AppendFeedback(ctx, record); err != nil {
		a.logger.Error("error appending feedback", "recipeID", recipeID, "err", err)
		return fmt.Errorf("recording feedback: %w", err)
	}
	a.logger.Debug("feedback recorded", "recipeID", recipeID, "helpful", helpful)
	return nil
}

// Top returns the recipes with the most helpful votes, most votes first and
// equal counts in ascending id order. The ranking is cut to limit before
// ids are resolved, so unknown ids can make the result shorter than limit.
// A non-positive limit means DefaultLimit.
func (a *Aggregator) Top(ctx context.Context, recipes RecipeLookup, limit int) ([]*core.FeedbackRanking, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	records, err := a.repository.AllFeedback(ctx)
	if err != nil {
		a.logger.Error("error reading feedback", "err", err)
		return nil, fmt.Errorf("reading feedback: %w", err)
	}

	counts := countHelpful(records)
	if len(counts) > limit {
		counts = counts[:limit]
	}

	rankings := make([]*core.FeedbackRanking, 0, len(counts))
	for _, c := range counts {
		recipe, ok := recipes.RecipeByID(c.id)
		if !ok {
			a.logger.Debug("skipping feedback for unknown recipe", "recipeID", c.id)
			continue
		}
		rankings = append(rankings, &core.FeedbackRanking{Recipe: recipe, Count: c.count})
	}
	return rankings, nil
}

type recipeCount struct {
	id    core.RecipeID
	count int
}

// countHelpful tallies helpful votes per recipe, ordered by count descending
// then id ascending.
func countHelpful(records []*core.FeedbackRecord) []recipeCount {
	tally := make(map[core.RecipeID]int)
	for _, r := range records {
		if r.Helpful {
			tally[r.RecipeID]++
		}
	}

	counts := make([]recipeCount, 0, len(tally))
	for id, n := range tally {
		counts = append(counts, recipeCount{id: id, count: n})
	}
	slices.SortFunc(counts, func(a, b recipeCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	return counts
}
