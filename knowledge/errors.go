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


package knowledge

import "errors"

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrFetcherRequired is returned when a content fetcher is not provided.
	ErrFetcherRequired = errors.New("content fetcher required")

	// ErrInvalidURL is returned when a web page URL is not an absolute
	// http or https URL. This is a caller error and is never retried.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrEmptyQuery is returned when a search query is empty.
	ErrEmptyQuery = errors.New("empty query")
)
