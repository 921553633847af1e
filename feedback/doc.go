// Package feedback records helpfulness votes on search results and ranks
// recipes by the number of helpful votes they received.
//
// Votes are never validated against the corpus: a vote for an id that is
// not (or no longer) indexed is stored, counted, and silently left out of
// rankings.
package feedback
