package retrieval

import "github.com/sievelabs/webharvest/core"

// Monitor provides hooks to observe a retrieval batch.
// Implement this interface to track per-page outcomes during fan-out.
// PageFetched and PageDropped are called from worker goroutines and
// must be safe for concurrent use.
type Monitor interface {
	Start(targetCount int)
	PageFetched(page core.PageContent)
	PageDropped(url string, err error)
	Finish(pages []core.PageContent)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ int)                    {}
func (n *noopMonitor) PageFetched(_ core.PageContent) {}
func (n *noopMonitor) PageDropped(_ string, _ error)  {}
func (n *noopMonitor) Finish(_ []core.PageContent)    {}
