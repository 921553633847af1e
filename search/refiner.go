package search

import (
	"cmp"
	"slices"

	"github.com/poiesic/recipefind/core"
)

// RecipeSource resolves a corpus position to its recipe.
type RecipeSource interface {
	Recipe(position int) *core.Recipe
}

// FilterByOverlap keeps the candidates whose ingredients share at least
// minOverlap distinct tokens with the query. Order is preserved. A
// minOverlap of zero or less returns candidates unchanged.
func FilterByOverlap(candidates []Candidate, source RecipeSource, tokens []string, minOverlap int) []Candidate {
	if minOverlap <= 0 {
		return candidates
	}
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		recipe := source.Recipe(c.Position)
		if recipe == nil {
			continue
		}
		if TokenOverlap(tokens, recipe.Ingredients) >= minOverlap {
			kept = append(kept, c)
		}
	}
	return kept
}

// PreferHealthier stably re-orders candidates by ascending calories. Recipes
// without a calorie count go after all others; ties keep their prior order.
// The input slice is not modified.
func PreferHealthier(candidates []Candidate, source RecipeSource) []Candidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return cmp.Compare(
			source.Recipe(a.Position).CaloriesOrInf(),
			source.Recipe(b.Position).CaloriesOrInf(),
		)
	})
	return sorted
}

// Refiner applies the post-ranking passes in their fixed order: overlap
// filter, optional health sort, truncation.
type Refiner struct {
	TopK       int
	MinOverlap int
}

// Refine narrows ranked candidates to at most TopK results. monitor may be nil.
func (r Refiner) Refine(candidates []Candidate, source RecipeSource, query string, healthy bool, monitor SearchMonitor) []Candidate {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	candidates = FilterByOverlap(candidates, source, QueryTokens(query), r.MinOverlap)
	monitor.AfterOverlapFilter(candidates)

	if healthy {
		candidates = PreferHealthier(candidates, source)
		monitor.AfterHealthRerank(candidates)
	}
	if r.TopK > 0 && len(candidates) > r.TopK {
		candidates = candidates[:r.TopK]
	}
	return candidates
}

// Enrich joins candidates with their recipes.
func Enrich(candidates []Candidate, source RecipeSource) []*core.SearchResult {
	results := make([]*core.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		recipe := source.Recipe(c.Position)
		if recipe == nil {
			continue
		}
		results = append(results, &core.SearchResult{Recipe: recipe, Score: c.Score})
	}
	return results
}
