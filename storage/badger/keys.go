package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/sievelabs/webharvest/core"
)

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentTagPrefix    = "doctag"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentRecordPrefix, id))
}

// makeDocumentTagKey generates a composite key for the tag index.
// Format: prefix:tag:id
func makeDocumentTagKey(tag string, id core.ID) []byte {
	prefix := documentTagPrefix + ":" + tag + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentTagKey generates a partial key for tag scans.
// Format: prefix:tag:
func makePartialDocumentTagKey(tag string) []byte {
	return []byte(documentTagPrefix + ":" + tag + ":")
}
