package search

import "github.com/poiesic/recipefind/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string, healthy bool)
	AfterEmbedding(dimensions int)
	AfterRanking(candidates []Candidate)
	AfterOverlapFilter(candidates []Candidate)
	AfterHealthRerank(candidates []Candidate)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ bool)           {}
func (n *noopMonitor) AfterEmbedding(_ int)             {}
func (n *noopMonitor) AfterRanking(_ []Candidate)       {}
func (n *noopMonitor) AfterOverlapFilter(_ []Candidate) {}
func (n *noopMonitor) AfterHealthRerank(_ []Candidate)  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)    {}
