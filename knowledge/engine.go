package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/sievelabs/webharvest/ai"
	"github.com/sievelabs/webharvest/core"
	"github.com/sievelabs/webharvest/fetch"
	"github.com/sievelabs/webharvest/sanitize"
	"github.com/sievelabs/webharvest/storage"
)

const (
	// defaultMinSimilarity is the embedding similarity threshold below
	// which stored documents are not considered matches.
	defaultMinSimilarity = 0.60

	// defaultMaxHits bounds the result set of a search tier.
	defaultMaxHits = 10

	// verbatimBoost is added to the score of documents containing every
	// query word.
	verbatimBoost = 0.3
)

// Scope identifies the caller of a search: whether they are signed in,
// and which conversation (if any) their session belongs to.
type Scope struct {
	// Authenticated callers see both public and private documents.
	// Anonymous callers see public documents only.
	Authenticated bool

	// Conversation is the identifier of the current conversation.
	// When set, it enables the conversation-scoped fallback tier.
	Conversation string
}

// Engine imports content into a tagged document store and searches it
// with a two-tier fallback strategy.
type Engine struct {
	repository    storage.DocumentRepository
	embedder      ai.Embedder
	fetcher       *fetch.Fetcher
	minSimilarity float32
	maxHits       int
	logger        *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the embedding similarity threshold for search.
func WithMinSimilarity(min float32) Option {
	return func(e *Engine) error {
		e.minSimilarity = min
		return nil
	}
}

// WithMaxHits sets the per-tier result limit for search.
func WithMaxHits(max int) Option {
	return func(e *Engine) error {
		e.maxHits = max
		return nil
	}
}

// NewEngine creates a new knowledge engine.
func NewEngine(
	repository storage.DocumentRepository,
	embedder ai.Embedder,
	fetcher *fetch.Fetcher,
	opts ...Option,
) (*Engine, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	e := &Engine{
		repository:    repository,
		embedder:      embedder,
		fetcher:       fetcher,
		minSimilarity: defaultMinSimilarity,
		maxHits:       defaultMaxHits,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// ImportDocument stores content under the given tags and returns the
// document ID. The ID is derived from the content, so importing
// identical content overwrites the earlier document instead of
// duplicating it.
func (e *Engine) ImportDocument(ctx context.Context, content, fileName string, tags core.DocumentTags) (core.ID, error) {
	doc := &core.Document{
		ID:       core.IDFromContent(content),
		Content:  content,
		FileName: fileName,
		Tags:     tags,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return 0, err
	}

	vector, err := e.embedder.EmbedText(ctx, content)
	if err != nil {
		e.logger.Error("error generating embedding for document", "fileName", fileName, "err", err)
		return 0, err
	}
	doc.Vector = vector

	if _, err := e.repository.AddDocuments(ctx, doc); err != nil {
		return 0, err
	}

	e.logger.Debug("imported document", "id", doc.ID, "fileName", fileName, "access", tags.Access)
	return doc.ID, nil
}

// ImportWebPage fetches the page at rawURL, sanitizes it, and imports
// the cleaned text under the given tags. The URL must be an absolute
// http or https URL.
func (e *Engine) ImportWebPage(ctx context.Context, rawURL string, tags core.DocumentTags) (core.ID, error) {
	if err := validatePageURL(rawURL); err != nil {
		return 0, err
	}

	outcome, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	text := sanitize.Clean(string(outcome.Body))
	return e.ImportDocument(ctx, text, rawURL, tags)
}

// RemoveDocument deletes a previously imported document. Removing a
// document that does not exist is not an error.
func (e *Engine) RemoveDocument(ctx context.Context, id core.ID) error {
	err := e.repository.DeleteDocuments(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		e.logger.Debug("document already removed", "id", id)
		return nil
	}
	return err
}

// Search queries the store with a two-tier fallback. Tier 1 applies the
// access filter implied by the scope; when it yields nothing and the
// scope carries a conversation, Tier 2 re-issues the query against that
// conversation's documents only.
func (e *Engine) Search(ctx context.Context, query string, scope Scope) ([]*core.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	var tierOne []string
	if !scope.Authenticated {
		tierOne = []string{storage.AccessTag(core.AccessPublic)}
	}

	hits, err := e.searchTier(ctx, vector, query, tierOne)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return hits, nil
	}

	if scope.Conversation == "" {
		return hits, nil
	}

	e.logger.Debug("no global results, falling back to conversation tier", "conversation", scope.Conversation)
	tierTwo := []string{storage.ConversationTag(scope.Conversation)}
	return e.searchTier(ctx, vector, query, tierTwo)
}

// searchTier runs one tier of the fallback: similarity search under a
// tag filter, then the verbatim keyword boost and a re-sort.
func (e *Engine) searchTier(ctx context.Context, vector []float32, query string, tags []string) ([]*core.SearchHit, error) {
	hits, err := e.repository.FindSimilar(ctx, vector, tags, e.minSimilarity, e.maxHits)
	if err != nil {
		e.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}

	for _, hit := range hits {
		if containsAllQueryWords(hit.Document.Content, query) {
			hit.Score += verbatimBoost
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	return hits, nil
}

// validatePageURL checks that rawURL is an absolute http or https URL.
func validatePageURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return nil
}
