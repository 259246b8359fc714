package pipeline

import "github.com/poiesic/docsift/core"

// Monitor provides hooks to observe a run.
// Document hooks are called from worker goroutines and must be safe for
// concurrent use.
type Monitor interface {
	Start(runID string, query *core.Query, documents []string)
	DocumentLoaded(documentID string, runs int)
	DocumentRanked(documentID string, scored []core.ScoredSection)
	DocumentFailed(documentID string, err error)
	AfterFilter(ranked []core.ScoredSection)
	Finish(result *core.Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ *core.Query, _ []string)       {}
func (n *noopMonitor) DocumentLoaded(_ string, _ int)                  {}
func (n *noopMonitor) DocumentRanked(_ string, _ []core.ScoredSection) {}
func (n *noopMonitor) DocumentFailed(_ string, _ error)                {}
func (n *noopMonitor) AfterFilter(_ []core.ScoredSection)              {}
func (n *noopMonitor) Finish(_ *core.Result)                           {}
