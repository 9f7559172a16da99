package badger

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sievelabs/webharvest/core"
	"github.com/sievelabs/webharvest/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	return &DocumentRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *DocumentRepository) Close() error {
	return nil
}

// AddDocuments stores one or more documents. Documents are keyed by
// their content-derived ID, so re-adding the same content overwrites
// the existing record in place.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			key := makeDocumentKey(doc.ID)

			// Read old record to detect tag changes on overwrite
			old, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}

			// Stored timestamps carry microsecond precision
			now := time.Now().UTC().Truncate(time.Microsecond)
			if old == nil {
				doc.InsertedAt = now
			} else {
				doc.InsertedAt = old.InsertedAt
			}
			doc.UpdatedAt = now

			// Store primary record
			value := storage.MarshalDocument(doc)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update tag index
			if old != nil {
				if err := deleteTagIndex(tx, old); err != nil {
					return err
				}
			}
			if err := updateTagIndex(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		var err error
		result, err = r.readDocument(tx, key)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteDocuments removes documents by their IDs.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(id)

			// Read record to get tags for index cleanup
			doc, err := r.readDocument(tx, key)
			if err != nil {
				return err
			}
			if doc == nil {
				return storage.ErrNotFound
			}

			if err := deleteTagIndex(tx, doc); err != nil {
				return err
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// FindByTags retrieves documents carrying all of the given tags.
// With no tags, all documents match.
func (r *DocumentRepository) FindByTags(ctx context.Context, tags []string, limit int) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.scanByTags(tx, tags, func(doc *core.Document) bool {
			if limit > 0 && len(results) >= limit {
				return false
			}
			results = append(results, doc)
			return true
		})
	}, false)
	return results, err
}

// FindSimilar finds documents similar to the given vector, restricted
// to documents carrying all of the given tags.
func (r *DocumentRepository) FindSimilar(ctx context.Context, vector []float32, tags []string, minSimilarity float32, limit int) ([]*core.SearchHit, error) {
	var hits []*core.SearchHit

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.scanByTags(tx, tags, func(doc *core.Document) bool {
			// Skip documents without embeddings
			if len(doc.Vector) == 0 {
				return true
			}

			// Cosine similarity (dot product for normalized vectors)
			similarity := dotProduct(vector, doc.Vector)
			if similarity >= minSimilarity {
				hits = append(hits, &core.SearchHit{
					Document: doc,
					Score:    similarity,
				})
			}
			return true
		})
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(hits, func(a, b *core.SearchHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits, nil
}

// scanByTags visits every document matching all tags until yield
// returns false. With tags it walks the index of the first tag and
// filters on the rest; without tags it walks the primary records.
func (r *DocumentRepository) scanByTags(tx *badger.Txn, tags []string, yield func(*core.Document) bool) error {
	if len(tags) == 0 {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			if !yield(doc) {
				return nil
			}
		}
		return nil
	}

	startKey := makePartialDocumentTagKey(tags[0])
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if !bytes.HasPrefix(key, startKey) {
			break
		}

		// Read the ID from the index
		var docID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			docID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		// Look up the full record
		doc, err := r.readDocument(tx, makeDocumentKey(docID))
		if err != nil {
			return err
		}
		if doc == nil {
			continue
		}
		if !documentHasTags(doc, tags[1:]) {
			continue
		}
		if !yield(doc) {
			return nil
		}
	}
	return nil
}

// Helper methods

// readDocument reads a document from the transaction.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// updateTagIndex adds tag index entries for a document.
func updateTagIndex(tx *badger.Txn, doc *core.Document) error {
	for _, tag := range storage.WireTags(doc.Tags) {
		key := makeDocumentTagKey(tag, doc.ID)
		value := storage.MarshalID(doc.ID)
		if err := tx.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// deleteTagIndex removes tag index entries for a document.
func deleteTagIndex(tx *badger.Txn, doc *core.Document) error {
	for _, tag := range storage.WireTags(doc.Tags) {
		key := makeDocumentTagKey(tag, doc.ID)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// documentHasTags reports whether the document carries every tag.
func documentHasTags(doc *core.Document, tags []string) bool {
	wire := storage.WireTags(doc.Tags)
	for _, tag := range tags {
		if !slices.Contains(wire, tag) {
			return false
		}
	}
	return true
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
