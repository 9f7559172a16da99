package webharvest

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sievelabs/webharvest/ai/mock"
	"github.com/sievelabs/webharvest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticProvider yields a fixed result list, bounded by top.
type staticProvider struct {
	results []core.WebResult
}

func (p *staticProvider) Results(ctx context.Context, query string, top int) iter.Seq2[core.WebResult, error] {
	return func(yield func(core.WebResult, error) bool) {
		for i, r := range p.results {
			if i >= top {
				return
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

func newTestSystem(t *testing.T, results []core.WebResult) *System {
	t.Helper()

	system, err := NewSystem("",
		WithInMemoryStore(),
		WithSearchProvider(&staticProvider{results: results}),
		WithEmbedder(mock.NewMockEmbedder()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { system.Close() })

	return system
}

func TestSearchOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<p>Content of %s</p>", r.URL.Path)
	}))
	defer server.Close()

	results := []core.WebResult{
		{Title: "One", Link: server.URL + "/one"},
		{Title: "No link", Link: ""},
		{Title: "Broken", Link: server.URL + "/broken"},
		{Title: "Two", Link: server.URL + "/two"},
	}

	system := newTestSystem(t, results)

	raw, err := system.SearchOnline(context.Background(), "anything", 10)
	require.NoError(t, err)

	var pages []struct {
		URL     string `json:"url"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(raw, &pages))

	// Linkless and failing results are dropped, the rest survive
	require.Len(t, pages, 2)
	contents := map[string]string{}
	for _, p := range pages {
		contents[p.URL] = p.Content
	}
	assert.Equal(t, "Content of /one", contents[server.URL+"/one"])
	assert.Equal(t, "Content of /two", contents[server.URL+"/two"])
}

func TestSearchOnline_EmptyBatchIsEmptyArray(t *testing.T) {
	system := newTestSystem(t, nil)

	raw, err := system.SearchOnline(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

func TestSystemEngineRoundTrip(t *testing.T) {
	system := newTestSystem(t, nil)
	ctx := context.Background()

	id, err := system.Engine().ImportDocument(ctx, "wired end to end", "e2e.txt", core.DocumentTags{
		Access: core.AccessPublic,
	})
	require.NoError(t, err)

	doc, err := system.Repository().GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "wired end to end", doc.Content)

	require.NoError(t, system.Engine().RemoveDocument(ctx, id))
}
