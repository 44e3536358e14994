package search

import "github.com/tomasz-trela/backend-thread-weaver/core"

// SearchMonitor provides hooks to observe the hybrid search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterLexicalSearch(results []*core.SearchResult)
	AfterSemanticSearch(results []*core.SearchResult)
	AfterFusion(results []*core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterLexicalSearch(_ []*core.SearchResult)   {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) AfterFusion(_ []*core.SearchResult)          {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)               {}
