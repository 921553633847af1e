package main

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/recipefind/core"
	"github.com/poiesic/recipefind/search"
)

// explainMonitor prints each search stage as it completes.
type explainMonitor struct {
	w       io.Writer
	recipes search.RecipeSource
	start   time.Time
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

func newExplainMonitor(w io.Writer, recipes search.RecipeSource) *explainMonitor {
	return &explainMonitor{w: w, recipes: recipes}
}

func (m *explainMonitor) Start(query string, healthy bool) {
	m.start = time.Now()
	fmt.Fprintf(m.w, "query: %q healthy=%t\n", query, healthy)
}

func (m *explainMonitor) AfterEmbedding(dimensions int) {
	fmt.Fprintf(m.w, "embedded: %d dimensions (%s)\n", dimensions, m.elapsed())
}

func (m *explainMonitor) AfterRanking(candidates []search.Candidate) {
	fmt.Fprintf(m.w, "ranked: %d candidates", len(candidates))
	if len(candidates) > 0 {
		best := candidates[0]
		fmt.Fprintf(m.w, ", best %.4f %s", best.Score, m.describe(best.Position))
	}
	fmt.Fprintln(m.w)
}

func (m *explainMonitor) AfterOverlapFilter(candidates []search.Candidate) {
	fmt.Fprintf(m.w, "ingredient overlap: %d candidates remain\n", len(candidates))
}

func (m *explainMonitor) AfterHealthRerank(candidates []search.Candidate) {
	fmt.Fprintf(m.w, "health rerank: %d candidates", len(candidates))
	if len(candidates) > 0 {
		fmt.Fprintf(m.w, ", lightest %s", m.describe(candidates[0].Position))
	}
	fmt.Fprintln(m.w)
}

func (m *explainMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "returned: %d results (%s)\n\n", len(results), m.elapsed())
}

func (m *explainMonitor) describe(position int) string {
	r := m.recipes.Recipe(position)
	if r == nil {
		return fmt.Sprintf("position %d", position)
	}
	return fmt.Sprintf("#%d %s (%s cal)", r.ID, r.Name, formatFloat(r.Calories))
}

func (m *explainMonitor) elapsed() time.Duration {
	return time.Since(m.start).Round(time.Microsecond)
}
