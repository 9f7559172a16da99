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


// Package websearch adapts external text-search providers.
//
// A Provider turns a natural-language query into a finite, ordered,
// single-use sequence of results. The provider applies its own
// relevance ranking; this package only converts shapes and enforces
// the requested result bound. Retry and caching are the provider's
// concern, not the adapter's.
package websearch
