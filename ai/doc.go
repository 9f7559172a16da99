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


// Package ai provides abstractions for the AI services used by webharvest.
//
// The package defines the Embedder interface for generating vector
// embeddings from text, keeping the knowledge engine decoupled from any
// particular embedding backend.
//
// Two implementation sub-packages are included:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external services
//
// Public constructors in ai/openai return the Embedder interface to
// enforce abstraction; the mock constructor returns a concrete type so
// tests can inject behavior and assert on call counts.
package ai
