package websearch

import (
	"context"
	"iter"

	"github.com/sievelabs/webharvest/core"
)

// Provider produces web search results for a query.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Results returns at most top results for the query as a lazy,
	// ordered, single-use sequence. The query is not issued until the
	// sequence is first ranged over. A failure to reach the provider
	// is yielded as the sequence's only element.
	Results(ctx context.Context, query string, top int) iter.Seq2[core.WebResult, error]
}
