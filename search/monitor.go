package search

import "github.com/poiesic/hindsight/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterSemanticPass(candidates []*core.SearchResult)
	AfterKeywordPass(ids []core.ID)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)          {}
func (n *noopMonitor) AfterSemanticPass(_ []*core.SearchResult) {}
func (n *noopMonitor) AfterKeywordPass(_ []core.ID)             {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)            {}
