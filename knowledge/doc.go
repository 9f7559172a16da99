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


// Package knowledge provides ingestion and fallback search over a tagged
// document store.
//
// The Engine type imports documents and web pages with access-level and
// conversation tags, and searches them with a two-tier strategy:
//
//   - Tier 1 queries the store filtered by access tags appropriate to the
//     caller (anonymous callers see public documents only; signed-in
//     callers see everything).
//   - Tier 2 fires only when Tier 1 yields nothing: the same query is
//     re-scoped to documents tagged with the current conversation,
//     ignoring the access filter. Content just imported into this
//     conversation stays searchable even when global knowledge is sparse.
//
// Results are ranked by embedding similarity with a verbatim keyword
// boost for documents containing every query word.
package knowledge
