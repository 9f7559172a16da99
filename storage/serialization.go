// Copyright 2026 Sieve Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/sievelabs/webharvest/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, documentMUS.Size(*doc))
	documentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := documentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// documentMUS is a hand-written MUS serializer for core.Document.
// Timestamps travel as Unix microseconds; the vector as a length
// prefix followed by its elements.
var documentMUS = documentSer{}

type documentSer struct{}

func (documentSer) Marshal(doc core.Document, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(doc.ID), bs)
	n += ord.String.Marshal(doc.Content, bs[n:])
	n += ord.String.Marshal(doc.FileName, bs[n:])
	n += varint.Int.Marshal(int(doc.Tags.Access), bs[n:])
	n += ord.String.Marshal(doc.Tags.Conversation, bs[n:])
	n += varint.Int.Marshal(len(doc.Vector), bs[n:])
	for _, v := range doc.Vector {
		n += varint.Float32.Marshal(v, bs[n:])
	}
	n += varint.Int64.Marshal(doc.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(doc.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (documentSer) Unmarshal(bs []byte) (doc core.Document, n int, err error) {
	var n1 int

	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	doc.ID = core.ID(id)

	doc.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	doc.FileName, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	access, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.Tags.Access = core.AccessLevel(access)

	doc.Tags.Conversation, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	length, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length > 0 {
		doc.Vector = make([]float32, length)
		for i := 0; i < length; i++ {
			doc.Vector[i], n1, err = varint.Float32.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}

	insertedAt, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.InsertedAt = time.UnixMicro(insertedAt).UTC()

	updatedAt, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	doc.UpdatedAt = time.UnixMicro(updatedAt).UTC()

	return doc, n, nil
}

func (documentSer) Size(doc core.Document) (size int) {
	size = varint.Uint64.Size(uint64(doc.ID))
	size += ord.String.Size(doc.Content)
	size += ord.String.Size(doc.FileName)
	size += varint.Int.Size(int(doc.Tags.Access))
	size += ord.String.Size(doc.Tags.Conversation)
	size += varint.Int.Size(len(doc.Vector))
	for _, v := range doc.Vector {
		size += varint.Float32.Size(v)
	}
	size += varint.Int64.Size(doc.InsertedAt.UnixMicro())
	size += varint.Int64.Size(doc.UpdatedAt.UnixMicro())
	return size
}
