package storage

import (
	"context"

	"github.com/sievelabs/webharvest/core"
)

// DocumentRepository provides operations for managing stored documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocuments stores one or more documents under the IDs the
	// caller assigned. Re-adding a document with an existing ID
	// overwrites it and refreshes its tag index. Sets the
	// InsertedAt/UpdatedAt timestamps.
	// Returns the documents with timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// DeleteDocuments removes documents by their IDs, including their
	// tag index entries. Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// FindByTags retrieves documents carrying every given wire tag.
	// An empty tag set matches all documents. A limit <= 0 means no limit.
	FindByTags(ctx context.Context, tags []string, limit int) ([]*core.Document, error)

	// FindSimilar finds documents similar to the given vector among
	// those carrying every given wire tag. Documents without an
	// embedding are skipped. Returns hits with similarity >=
	// minSimilarity, ordered by score (highest first), up to limit.
	FindSimilar(ctx context.Context, vector []float32, tags []string, minSimilarity float32, limit int) ([]*core.SearchHit, error)

	// Close closes the repository and releases resources.
	Close() error
}
