package search

import (
	"fmt"
	"slices"

	"github.com/poiesic/recipefind/storage/matrix"
)

// CandidatePoolSize is how many positions survive the similarity pass.
// Later passes may discard candidates, so it is well above the result size.
const CandidatePoolSize = 200

// Candidate is a corpus position and its similarity to the query.
type Candidate struct {
	Position int
	Score    float32
}

// Similarity returns the dot product of two equal-length vectors. For unit
// vectors this is their cosine similarity.
func Similarity(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Rank scores every row of m against the unit query vector and returns the
// best limit candidates by descending score. Equal scores keep ascending
// corpus position. A non-positive limit means CandidatePoolSize.
func Rank(query []float32, m *matrix.Matrix, limit int) ([]Candidate, error) {
	if m == nil {
		return nil, ErrCorpusRequired
	}
	if len(query) != m.Dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, corpus has %d",
			ErrDimensionMismatch, len(query), m.Dims)
	}
	if limit <= 0 {
		limit = CandidatePoolSize
	}

	candidates := make([]Candidate, m.Len())
	for i := range candidates {
		candidates[i] = Candidate{Position: i, Score: Similarity(query, m.Row(i))}
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
