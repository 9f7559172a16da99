package knowledge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sievelabs/webharvest/ai/mock"
	"github.com/sievelabs/webharvest/core"
	"github.com/sievelabs/webharvest/fetch"
	"github.com/sievelabs/webharvest/storage"
	"github.com/sievelabs/webharvest/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps texts onto a tiny fixed vector space so tests
// control exactly which documents a query matches.
func keywordEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		words := tokenizeAndFilter(text)
		for _, w := range words {
			if w == "gopher" {
				return []float32{1, 0, 0}, nil
			}
		}
		for _, w := range words {
			if w == "lobster" {
				return []float32{0, 1, 0}, nil
			}
		}
		return []float32{0, 0, 1}, nil
	}
	return embedder
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, storage.DocumentRepository) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(); backend.Close() })

	fetcher, err := fetch.New(&http.Client{Timeout: 5 * time.Second},
		fetch.WithDelayFunc(func(ctx context.Context, d time.Duration) error { return ctx.Err() }))
	require.NoError(t, err)

	engine, err := NewEngine(repo, keywordEmbedder(), fetcher, opts...)
	require.NoError(t, err)

	return engine, repo
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	fetcher, err := fetch.New(&http.Client{})
	require.NoError(t, err)

	_, err = NewEngine(nil, mock.NewMockEmbedder(), fetcher)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewEngine(repo, nil, fetcher)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewEngine(repo, mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrFetcherRequired)
}

func TestImportDocument(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	tags := core.DocumentTags{Access: core.AccessPublic}
	id, err := engine.ImportDocument(ctx, "the gopher lives underground", "gopher.txt", tags)
	require.NoError(t, err)
	assert.Equal(t, core.IDFromContent("the gopher lives underground"), id)

	doc, err := repo.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "the gopher lives underground", doc.Content)
	assert.Equal(t, "gopher.txt", doc.FileName)
	assert.Equal(t, core.AccessPublic, doc.Tags.Access)
	assert.NotEmpty(t, doc.Vector)

	// Re-importing identical content yields the same ID, not a duplicate
	again, err := engine.ImportDocument(ctx, "the gopher lives underground", "copy.txt", tags)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	all, err := repo.FindByTags(ctx, nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestImportDocument_Invalid(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ImportDocument(ctx, "", "empty.txt", core.DocumentTags{Access: core.AccessPublic})
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	_, err = engine.ImportDocument(ctx, "content", "bad.txt", core.DocumentTags{})
	assert.ErrorIs(t, err, core.ErrInvalidAccessLevel)
}

func TestImportWebPage(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><script>nope</script><p>Gopher<br>burrows</p></html>"))
	}))
	defer server.Close()

	id, err := engine.ImportWebPage(ctx, server.URL, core.DocumentTags{Access: core.AccessPrivate})
	require.NoError(t, err)

	doc, err := repo.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Gopher\nburrows", doc.Content)
	assert.Equal(t, server.URL, doc.FileName)
}

func TestImportWebPage_InvalidURL(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()
	tags := core.DocumentTags{Access: core.AccessPublic}

	for _, rawURL := range []string{"", "not a url", "ftp://example.com/file", "/relative/path", "http://"} {
		t.Run(rawURL, func(t *testing.T) {
			_, err := engine.ImportWebPage(ctx, rawURL, tags)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestImportWebPage_FetchFailure(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := engine.ImportWebPage(ctx, server.URL, core.DocumentTags{Access: core.AccessPublic})
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrHTTPStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemoveDocument_Idempotent(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	id, err := engine.ImportDocument(ctx, "short-lived note", "note.txt", core.DocumentTags{Access: core.AccessPublic})
	require.NoError(t, err)

	require.NoError(t, engine.RemoveDocument(ctx, id))

	_, err = repo.GetDocument(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Removing again is not an error
	assert.NoError(t, engine.RemoveDocument(ctx, id))
	assert.NoError(t, engine.RemoveDocument(ctx, core.ID(999999)))
}

func TestSearch_TierOne(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ImportDocument(ctx, "gopher tunnels and burrows", "a.txt", core.DocumentTags{Access: core.AccessPublic})
	require.NoError(t, err)
	_, err = engine.ImportDocument(ctx, "lobster habitats", "b.txt", core.DocumentTags{Access: core.AccessPublic})
	require.NoError(t, err)

	hits, err := engine.Search(ctx, "gopher", Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "gopher tunnels and burrows", hits[0].Document.Content)
}

func TestSearch_AnonymousSeesPublicOnly(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ImportDocument(ctx, "public gopher lore", "pub.txt", core.DocumentTags{Access: core.AccessPublic})
	require.NoError(t, err)
	_, err = engine.ImportDocument(ctx, "private gopher dossier", "priv.txt", core.DocumentTags{Access: core.AccessPrivate})
	require.NoError(t, err)

	anon, err := engine.Search(ctx, "gopher", Scope{})
	require.NoError(t, err)
	require.Len(t, anon, 1)
	assert.Equal(t, "public gopher lore", anon[0].Document.Content)

	signedIn, err := engine.Search(ctx, "gopher", Scope{Authenticated: true})
	require.NoError(t, err)
	assert.Len(t, signedIn, 2)
}

func TestSearch_ConversationFallback(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	// Only a private, conversation-scoped document matches the query
	_, err := engine.ImportDocument(ctx, "gopher notes pasted into chat", "paste.txt", core.DocumentTags{
		Access:       core.AccessPrivate,
		Conversation: "conv-42",
	})
	require.NoError(t, err)

	// Anonymous caller in the conversation: Tier 1 (public only) is
	// empty, Tier 2 finds the conversation document regardless of access
	hits, err := engine.Search(ctx, "gopher", Scope{Conversation: "conv-42"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "gopher notes pasted into chat", hits[0].Document.Content)

	// Without a conversation there is no fallback tier
	none, err := engine.Search(ctx, "gopher", Scope{})
	require.NoError(t, err)
	assert.Empty(t, none)

	// A different conversation does not see it either
	other, err := engine.Search(ctx, "gopher", Scope{Conversation: "conv-1"})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSearch_NoFallbackWhenTierOneHits(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ImportDocument(ctx, "global gopher article", "g.txt", core.DocumentTags{Access: core.AccessPublic})
	require.NoError(t, err)
	_, err = engine.ImportDocument(ctx, "conversation gopher scrap", "c.txt", core.DocumentTags{
		Access:       core.AccessPrivate,
		Conversation: "conv-42",
	})
	require.NoError(t, err)

	hits, err := engine.Search(ctx, "gopher", Scope{Conversation: "conv-42"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "global gopher article", hits[0].Document.Content)
}

func TestSearch_VerbatimBoost(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.ImportDocument(ctx, "gopher facts", "f.txt", core.DocumentTags{Access: core.AccessPublic})
	require.NoError(t, err)
	_, err = engine.ImportDocument(ctx, "the gopher habitat is underground", "h.txt", core.DocumentTags{Access: core.AccessPublic})
	require.NoError(t, err)

	hits, err := engine.Search(ctx, "gopher habitat", Scope{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// Both match semantically; the document containing every query word ranks first
	assert.Equal(t, "the gopher habitat is underground", hits[0].Document.Content)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearch_EmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Search(context.Background(), "   ", Scope{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
