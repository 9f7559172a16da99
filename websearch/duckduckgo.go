package websearch

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/sievelabs/webharvest/core"
	"github.com/sievelabs/webharvest/sanitize"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// Result markup patterns for the DuckDuckGo HTML endpoint.
var (
	resultLinkPattern    = regexp.MustCompile(`<a[^>]*class="result__a"[^>]*href="([^"]*)"[^>]*>(.*?)</a>`)
	resultSnippetPattern = regexp.MustCompile(`class="result__snippet"[^>]*>(.*?)</a>`)
	uddgPattern          = regexp.MustCompile(`uddg=([^&"]+)`)
)

// DuckDuckGo queries the DuckDuckGo HTML endpoint and scrapes results.
// It implements Provider.
type DuckDuckGo struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

var _ Provider = (*DuckDuckGo)(nil)

// Option configures a DuckDuckGo provider.
type Option func(*DuckDuckGo)

// WithBaseURL overrides the search endpoint. Intended for tests.
func WithBaseURL(baseURL string) Option {
	return func(d *DuckDuckGo) {
		if baseURL != "" {
			d.baseURL = baseURL
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *DuckDuckGo) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

// NewDuckDuckGo creates a DuckDuckGo search provider around the given
// HTTP client.
func NewDuckDuckGo(client *http.Client, opts ...Option) (*DuckDuckGo, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	d := &DuckDuckGo{
		client:  client,
		baseURL: defaultBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Results returns at most top results for the query. The HTTP request
// is issued when the sequence is first ranged over; ranging a second
// time yields ErrSequenceConsumed instead of re-querying.
func (d *DuckDuckGo) Results(ctx context.Context, query string, top int) iter.Seq2[core.WebResult, error] {
	var consumed atomic.Bool

	return func(yield func(core.WebResult, error) bool) {
		if consumed.Swap(true) {
			yield(core.WebResult{}, ErrSequenceConsumed)
			return
		}

		if strings.TrimSpace(query) == "" {
			yield(core.WebResult{}, ErrEmptyQuery)
			return
		}

		results, err := d.search(ctx, query, top)
		if err != nil {
			yield(core.WebResult{}, err)
			return
		}

		for _, result := range results {
			if !yield(result, nil) {
				return
			}
		}
	}
}

func (d *DuckDuckGo) search(ctx context.Context, query string, top int) ([]core.WebResult, error) {
	endpoint := d.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "webharvest/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	results := d.parse(string(body), top)
	d.logger.Debug("search completed", "query", query, "results", len(results))
	return results, nil
}

// parse extracts up to top results from the provider's HTML markup.
// Links and snippets are matched positionally; a result without a
// matching snippet keeps an empty snippet rather than being dropped.
func (d *DuckDuckGo) parse(page string, top int) []core.WebResult {
	links := resultLinkPattern.FindAllStringSubmatch(page, top)
	snippets := resultSnippetPattern.FindAllStringSubmatch(page, top)

	results := make([]core.WebResult, 0, len(links))
	for i, match := range links {
		result := core.WebResult{
			Title: sanitize.Clean(match[2]),
			Link:  decodeRedirect(match[1]),
		}
		if i < len(snippets) {
			result.Snippet = sanitize.Clean(snippets[i][1])
		}
		results = append(results, result)
	}
	return results
}

// decodeRedirect unwraps DuckDuckGo's uddg redirect parameter, falling
// back to the raw href when no redirect is present.
func decodeRedirect(href string) string {
	match := uddgPattern.FindStringSubmatch(href)
	if match == nil {
		return href
	}
	decoded, err := url.QueryUnescape(match[1])
	if err != nil {
		return href
	}
	return decoded
}
