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


// Package fetch retrieves web content over HTTP with bounded retry.
//
// The Fetcher type performs a single logical GET per URL:
//   - Only http and https schemes are accepted; anything else fails
//     before any network call.
//   - Transient statuses (408, 500, 502, 504) and network errors are
//     retried on a fixed backoff schedule; all other statuses settle
//     the attempt immediately.
//   - Response bodies are fully buffered before the outcome is
//     returned, so callers never hold a live response stream.
//   - Declared content types are canonicalized to a small recognized
//     set (see FixContentType).
package fetch
