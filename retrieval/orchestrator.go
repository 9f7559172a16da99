package retrieval

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/sievelabs/webharvest/core"
	"github.com/sievelabs/webharvest/fetch"
	"github.com/sievelabs/webharvest/sanitize"
)

// Orchestrator concurrently fetches and sanitizes the pages behind a
// batch of search results.
type Orchestrator struct {
	fetcher  *fetch.Fetcher
	poolSize int // 0 means one worker per link
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPoolSize caps the number of concurrent fetch tasks per batch.
// The default is one worker per link, issuing every fetch at once.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.poolSize = size
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// NewOrchestrator creates a new retrieval orchestrator.
func NewOrchestrator(fetcher *fetch.Fetcher, opts ...Option) (*Orchestrator, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	o := &Orchestrator{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RetrieveAll fetches and sanitizes every linked result concurrently.
// See RetrieveAllWithMonitor.
func (o *Orchestrator) RetrieveAll(ctx context.Context, results iter.Seq2[core.WebResult, error]) ([]core.PageContent, error) {
	return o.RetrieveAllWithMonitor(ctx, results, nil)
}

// RetrieveAllWithMonitor fetches and sanitizes every linked result
// concurrently, reporting per-page outcomes to the monitor.
//
// Results without a link are skipped. A page whose fetch or clean
// fails is dropped from the batch; the batch itself only fails when
// the search result sequence fails or ctx is cancelled. The returned
// pages are unordered: completion order of concurrent fetches is
// non-deterministic.
func (o *Orchestrator) RetrieveAllWithMonitor(ctx context.Context, results iter.Seq2[core.WebResult, error], monitor Monitor) ([]core.PageContent, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	var targets []core.WebResult
	for result, err := range results {
		if err != nil {
			return nil, fmt.Errorf("search results unavailable: %w", err)
		}
		if strings.TrimSpace(result.Link) == "" {
			continue
		}
		targets = append(targets, result)
	}

	monitor.Start(len(targets))
	if len(targets) == 0 {
		monitor.Finish(nil)
		return []core.PageContent{}, nil
	}

	size := len(targets)
	if o.poolSize > 0 && o.poolSize < size {
		size = o.poolSize
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		mu    sync.Mutex
		pages = make([]core.PageContent, 0, len(targets))
		wg    sync.WaitGroup
	)

	for _, target := range targets {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			page, ok := o.retrieve(ctx, target, monitor)
			if !ok {
				return
			}

			mu.Lock()
			pages = append(pages, page)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			o.logger.Error("failed to submit fetch task", "url", target.Link, "err", submitErr)
			monitor.PageDropped(target.Link, submitErr)
		}
	}

	// The batch is complete only once every task has settled.
	wg.Wait()

	// Cancellation reflects caller intent, not a per-page fault, so it
	// fails the whole batch rather than returning a silent partial.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("retrieval cancelled: %w", err)
	}

	monitor.Finish(pages)
	return pages, nil
}

// retrieve fetches and cleans a single page. A false return means the
// page was dropped.
func (o *Orchestrator) retrieve(ctx context.Context, target core.WebResult, monitor Monitor) (core.PageContent, bool) {
	outcome, err := o.fetcher.Fetch(ctx, target.Link)
	if err != nil {
		o.logger.Debug("dropping unreachable page", "url", target.Link, "err", err)
		monitor.PageDropped(target.Link, err)
		return core.PageContent{}, false
	}

	page := core.PageContent{
		URL:  target.Link,
		Text: sanitize.Clean(string(outcome.Body)),
	}
	monitor.PageFetched(page)
	return page, true
}
