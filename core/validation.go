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


package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Tags.Access must be a valid AccessLevel
//   - InsertedAt must not be in the future
//
// NOT validated (populated during import):
//   - Vector (can be empty until the embedder runs)
//   - ID (0 is overwritten by content hashing on import)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if err := ValidateAccessLevel(doc.Tags.Access); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !IsValidTimestamp(doc.InsertedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateAccessLevel validates that an AccessLevel has a valid value.
func ValidateAccessLevel(access AccessLevel) error {
	if access != AccessPublic && access != AccessPrivate {
		return fmt.Errorf("%w: value %d", ErrInvalidAccessLevel, access)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (zero or not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
