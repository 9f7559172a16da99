package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDelay captures backoff waits instead of sleeping.
type recordingDelay struct {
	delays []time.Duration
}

func (r *recordingDelay) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.delays = append(r.delays, d)
	return nil
}

func newTestFetcher(t *testing.T, opts ...Option) (*Fetcher, *recordingDelay) {
	t.Helper()
	rec := &recordingDelay{}
	opts = append([]Option{WithDelayFunc(rec.wait)}, opts...)
	f, err := New(&http.Client{}, opts...)
	require.NoError(t, err)
	return f, rec
}

func TestNew(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := New(nil)
		assert.Equal(t, ErrClientRequired, err)
	})

	t.Run("valid client", func(t *testing.T) {
		f, err := New(&http.Client{})
		require.NoError(t, err)
		assert.NotNil(t, f)
	})
}

func TestFetch_RejectsNonHTTPSchemes(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	f, _ := newTestFetcher(t)

	for _, url := range []string{
		"ftp://example.com/file.txt",
		"file:///etc/passwd",
		"gopher://example.com",
		"javascript:alert(1)",
	} {
		t.Run(url, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), url)
			assert.ErrorIs(t, err, ErrUnknownProtocol)
		})
	}

	// No request may reach the network for rejected schemes.
	assert.Equal(t, int64(0), calls.Load())
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>hello</html>"))
	}))
	defer server.Close()

	f, rec := newTestFetcher(t)

	outcome, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>hello</html>"), outcome.Body)
	assert.Equal(t, "text/html", outcome.ContentType)
	assert.Empty(t, rec.delays)
}

func TestFetch_RetriesTransientStatuses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		failures   int
		wantDelays []time.Duration
	}{
		{
			name:       "500 three times then success",
			status:     http.StatusInternalServerError,
			failures:   3,
			wantDelays: []time.Duration{1 * time.Second, 1 * time.Second, 1 * time.Second},
		},
		{
			name:       "502 five times then success",
			status:     http.StatusBadGateway,
			failures:   5,
			wantDelays: []time.Duration{1 * time.Second, 1 * time.Second, 1 * time.Second, 2 * time.Second, 2 * time.Second},
		},
		{
			name:       "408 once then success",
			status:     http.StatusRequestTimeout,
			failures:   1,
			wantDelays: []time.Duration{1 * time.Second},
		},
		{
			name:   "504 nine times exhausts schedule tail",
			status: http.StatusGatewayTimeout,
			// Nine failures leave one attempt in the budget.
			failures: 9,
			wantDelays: []time.Duration{
				1 * time.Second, 1 * time.Second, 1 * time.Second,
				2 * time.Second, 2 * time.Second, 3 * time.Second,
				4 * time.Second, 5 * time.Second, 5 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= int64(tt.failures) {
					w.WriteHeader(tt.status)
					return
				}
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("ok"))
			}))
			defer server.Close()

			f, rec := newTestFetcher(t)

			outcome, err := f.Fetch(context.Background(), server.URL)
			require.NoError(t, err)
			assert.Equal(t, []byte("ok"), outcome.Body)
			assert.Equal(t, int64(tt.failures+1), calls.Load())
			assert.Equal(t, tt.wantDelays, rec.delays)
		})
	}
}

func TestFetch_ExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f, rec := newTestFetcher(t)

	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrHTTPStatus)
	assert.Equal(t, int64(10), calls.Load())
	assert.Len(t, rec.delays, 9)
}

func TestFetch_PermanentStatusFailsImmediately(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized, http.StatusTeapot} {
		var calls atomic.Int64
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
		}))

		f, rec := newTestFetcher(t)

		_, err := f.Fetch(context.Background(), server.URL)
		assert.ErrorIs(t, err, ErrHTTPStatus)
		assert.Equal(t, int64(1), calls.Load(), "status %d must not be retried", status)
		assert.Empty(t, rec.delays)
		server.Close()
	}
}

func TestFetch_MissingContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Suppress Go's automatic content-type sniffing.
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("mystery bytes"))
	}))
	defer server.Close()

	f, _ := newTestFetcher(t)

	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrNoContentType)
}

func TestFetch_BodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	f, _ := newTestFetcher(t, WithMaxBodySize(1024))

	_, err := f.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetch_CancellationAbortsRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f, err := New(&http.Client{}, WithDelayFunc(func(ctx context.Context, d time.Duration) error {
		// Simulate the caller cancelling mid-backoff.
		cancel()
		return ctx.Err()
	}))
	require.NoError(t, err)

	_, err = f.Fetch(ctx, server.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_NetworkErrorRetried(t *testing.T) {
	// A server that is immediately closed yields connection errors.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	f, rec := newTestFetcher(t)

	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHTTPStatus)
	assert.Len(t, rec.delays, 9)
}

func TestFixContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		want        string
		wantErr     error
	}{
		{
			name:        "plain text with markdown path",
			contentType: "text/plain",
			url:         "https://example.com/readme.md",
			want:        "text/markdown",
		},
		{
			name:        "plain text with non-markdown path",
			contentType: "text/plain",
			url:         "https://example.com/notes.txt",
			want:        "text/plain",
		},
		{
			name:        "markdown path with query string",
			contentType: "text/plain",
			url:         "https://example.com/readme.md?raw=true",
			want:        "text/markdown",
		},
		{
			name:        "legacy x-markdown alias",
			contentType: "text/x-markdown",
			url:         "https://example.com/page",
			want:        "text/markdown",
		},
		{
			name:        "legacy application markdown alias",
			contentType: "application/x-markdown",
			url:         "https://example.com/page",
			want:        "text/markdown",
		},
		{
			name:        "legacy xml alias",
			contentType: "text/xml",
			url:         "https://example.com/feed",
			want:        "application/xml",
		},
		{
			name:        "charset parameter stripped",
			contentType: "text/html; charset=utf-8",
			url:         "https://example.com/",
			want:        "text/html",
		},
		{
			name:        "empty content type",
			contentType: "",
			url:         "https://example.com/",
			wantErr:     ErrNoContentType,
		},
		{
			name:        "whitespace only",
			contentType: "   ",
			url:         "https://example.com/",
			wantErr:     ErrNoContentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FixContentType(tt.contentType, tt.url)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
