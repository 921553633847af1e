package core

import (
	"math"
	"time"
)

// RecipeID is the corpus-wide unique key of a recipe.
type RecipeID int64

// Recipe is a cleaned corpus record. It is immutable once the index is built.
// Nullable numeric fields are nil when the raw value was missing or unparsable.
type Recipe struct {
	ID           RecipeID
	Name         string
	Minutes      *int
	NIngredients *int
	Calories     *float64
	Ingredients  []string // ordered as in the raw data
	Steps        []string // ordered as in the raw data
}

// CaloriesOrInf returns the calorie count, or +Inf when unknown so that
// recipes without nutrition data sort after every recipe that has it.
func (r *Recipe) CaloriesOrInf() float64 {
	if r == nil || r.Calories == nil {
		return math.Inf(1)
	}
	return *r.Calories
}

// Manifest describes one built index generation. It is stored alongside the
// cleaned records and lets the loader prove that the record store and the
// embedding matrix were produced by the same build.
type Manifest struct {
	Count          int
	Dimensions     int
	Fingerprint    string // Fingerprint of the id ordering
	EmbeddingModel string
	BuiltAt        time.Time
}

// FeedbackRecord is one append-only helpfulness signal. The same recipe and
// query may appear any number of times; every record counts.
type FeedbackRecord struct {
	Timestamp time.Time
	RecipeID  RecipeID
	Query     string
	Helpful   bool
}

// SearchResult is a recipe returned by a query together with its similarity score.
type SearchResult struct {
	Recipe *Recipe
	Score  float32
}

// FeedbackRanking is a recipe together with the number of helpful votes it received.
type FeedbackRanking struct {
	Recipe *Recipe
	Count  int
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 {
	return &v
}
