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


// Package sanitize flattens raw HTML into normalized plain text.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled patterns, applied in order by Clean. Later steps assume
// the earlier ones already ran.
var (
	// Containers whose text content is never prose.
	scriptPattern   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	stylePattern    = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	noscriptPattern = regexp.MustCompile(`(?is)<noscript\b.*?</noscript>`)

	// Form controls carry UI chrome, not content.
	inputPattern    = regexp.MustCompile(`(?is)<input\b[^>]*>`)
	textareaPattern = regexp.MustCompile(`(?is)<textarea\b.*?</textarea>`)
	selectPattern   = regexp.MustCompile(`(?is)<select\b.*?</select>`)

	// Block separators become newlines before tags are stripped, so
	// paragraph structure survives.
	breakPattern = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)

	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s{2,}`)
)

// Clean transforms raw HTML into plain text. It is a pure, total
// function: invalid or empty input yields an empty string, never an
// error.
//
// Transformation order:
//  1. remove script/style/noscript blocks
//  2. remove input, textarea and select elements
//  3. replace <br> and </p> with newlines
//  4. strip all remaining tags, each replaced by a single space
//  5. decode HTML entities
//  6. collapse runs of whitespace into a single space and trim
func Clean(raw string) string {
	text := scriptPattern.ReplaceAllString(raw, "")
	text = stylePattern.ReplaceAllString(text, "")
	text = noscriptPattern.ReplaceAllString(text, "")

	text = inputPattern.ReplaceAllString(text, "")
	text = textareaPattern.ReplaceAllString(text, "")
	text = selectPattern.ReplaceAllString(text, "")

	text = breakPattern.ReplaceAllString(text, "\n")
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
