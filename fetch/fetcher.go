package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// maxAttempts is the hard ceiling on attempts per URL, first try included.
	maxAttempts = 10

	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// backoffSchedule holds the delay before each retry, indexed by the
// 0-based attempt that just failed. Attempts past the end of the
// schedule wait the final entry.
var backoffSchedule = []time.Duration{
	1 * time.Second,
	1 * time.Second,
	1 * time.Second,
	2 * time.Second,
	2 * time.Second,
	3 * time.Second,
	4 * time.Second,
	5 * time.Second,
}

// retriableStatuses are the only HTTP statuses that trigger a retry.
// Every other non-2xx status settles the fetch immediately.
var retriableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusGatewayTimeout:      true,
}

// Outcome is the result of a successful fetch: the fully buffered body
// and the canonicalized content type. It is never partially populated.
type Outcome struct {
	Body        []byte
	ContentType string
}

// DelayFunc waits for the given duration or until the context is done.
// It exists so tests can observe the backoff schedule without sleeping.
type DelayFunc func(ctx context.Context, d time.Duration) error

// Fetcher retrieves URLs with bounded retry and content-type
// canonicalization. The underlying HTTP client is shared and safe for
// concurrent use; Fetcher itself holds no per-call state.
type Fetcher struct {
	client      *http.Client
	delay       DelayFunc
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
	}
}

// WithMaxBodySize caps how many bytes of a response body are buffered.
// Responses larger than the cap fail the fetch. Default is 10MB.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithDelayFunc replaces the backoff wait implementation.
// Intended for tests; the default honors context cancellation.
func WithDelayFunc(delay DelayFunc) Option {
	return func(f *Fetcher) {
		if delay != nil {
			f.delay = delay
		}
	}
}

// New creates a Fetcher around the given HTTP client.
// The client is required: connection pooling and per-attempt timeouts
// are its responsibility, and callers share one client across all
// concurrent fetches.
func New(client *http.Client, opts ...Option) (*Fetcher, error) {
	if client == nil {
		return nil, ErrClientRequired
	}

	f := &Fetcher{
		client:      client,
		delay:       waitDelay,
		maxBodySize: defaultMaxBodySize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch performs an HTTP GET against url and returns the buffered body
// with its canonical content type.
//
// Scheme validation happens before any network call. Retriable statuses
// and network errors are retried per the backoff schedule, up to ten
// attempts in total. Cancelling ctx aborts the in-flight request and
// any pending backoff wait.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Outcome, error) {
	if err := validateScheme(url); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := f.delay(ctx, backoffDelay(attempt - 1)); err != nil {
				return nil, err
			}
		}

		outcome, retry, err := f.attempt(ctx, url)
		if err == nil {
			if attempt > 0 {
				f.logger.Debug("fetch succeeded after retry", "url", url, "attempt", attempt+1)
			}
			return outcome, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch cancelled: %w", ctx.Err())
		}
		if !retry {
			return nil, err
		}

		lastErr = err
		f.logger.Debug("fetch attempt failed", "url", url, "attempt", attempt+1, "err", err)
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", maxAttempts, lastErr)
}

// attempt performs one GET. The retry flag reports whether the failure
// is transient under the retry policy.
func (f *Fetcher) attempt(ctx context.Context, url string) (outcome *Outcome, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Network-level failure: connection refused, timeout, DNS.
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
		return nil, retriableStatuses[resp.StatusCode], err
	}

	// Buffer the whole body now. Streaming it past the response scope
	// trades a deterministic fetch error for a read timeout later.
	body, err := f.readAll(resp)
	if err != nil {
		return nil, false, err
	}

	contentType, err := FixContentType(resp.Header.Get("Content-Type"), url)
	if err != nil {
		return nil, false, err
	}

	return &Outcome{Body: body, ContentType: contentType}, false, nil
}

// readAll buffers the response body up to the configured size limit.
func (f *Fetcher) readAll(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Probe one extra byte to distinguish an exact-size body from an
	// oversized one.
	if int64(len(body)) == f.maxBodySize {
		extra := make([]byte, 1)
		if n, _ := resp.Body.Read(extra); n > 0 {
			return nil, fmt.Errorf("%w (max %d bytes)", ErrBodyTooLarge, f.maxBodySize)
		}
	}

	return body, nil
}

// backoffDelay returns the wait after the given 0-based failed attempt.
func backoffDelay(attempt int) time.Duration {
	if attempt >= len(backoffSchedule) {
		return backoffSchedule[len(backoffSchedule)-1]
	}
	return backoffSchedule[attempt]
}

// waitDelay sleeps for d unless the context is cancelled first.
func waitDelay(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
