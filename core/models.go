package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored documents.
// It is derived from document content so that re-importing identical
// content overwrites the existing document instead of duplicating it.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// AccessLevel is the visibility label attached to ingested content.
// It controls which search scopes may retrieve a document.
type AccessLevel int

const (
	// AccessPublic marks content visible to any caller.
	AccessPublic AccessLevel = iota + 1
	// AccessPrivate marks content visible only to authenticated callers.
	AccessPrivate
)

// String returns the wire representation of the access level.
func (a AccessLevel) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// DocumentTags is the closed set of tags attached to a document at import time.
// Tags are immutable once set. Conversation is optional; when non-empty the
// document is additionally scoped to that conversation for fallback search.
type DocumentTags struct {
	Access       AccessLevel
	Conversation string
}

// WebResult is a single result produced by the text search provider.
// Title and Link may be empty; results without a link are excluded
// from fetching.
type WebResult struct {
	Title   string
	Snippet string
	Link    string
}

// PageContent is the sanitized text of a successfully fetched page.
// It is only ever produced from a successful fetch; failed fetches are
// dropped, never surfaced as empty content.
type PageContent struct {
	URL  string
	Text string
}

// Document represents a unit of stored knowledge.
// It may be enriched with an embedding vector during import.
type Document struct {
	ID         ID
	Content    string
	FileName   string
	Tags       DocumentTags
	Vector     []float32 // Embedding vector for semantic ranking (populated at import)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// SearchHit is a knowledge search result with its relevance score.
type SearchHit struct {
	Document *Document
	Score    float32
}
