package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonical media types produced by FixContentType.
const (
	MimePlainText = "text/plain"
	MimeMarkdown  = "text/markdown"
	MimeXML       = "application/xml"
)

// Legacy aliases seen in the wild that get remapped to canonical types.
var markdownAliases = map[string]bool{
	"text/x-markdown":        true,
	"application/x-markdown": true,
}

const xmlAlias = "text/xml"

// FixContentType canonicalizes a declared content type for a fetched URL.
// Servers are inconsistent about labelling Markdown and XML, so the
// declared type is normalized in order:
//
//  1. text/plain with a URL path ending in ".md" becomes text/markdown
//  2. legacy markdown aliases become text/markdown
//  3. text/xml becomes application/xml
//  4. otherwise parameters (e.g. charset) are stripped and only the
//     primary media type token is kept
//
// An empty declared type is an error; content without a type cannot be
// ingested meaningfully.
func FixContentType(contentType, rawURL string) (string, error) {
	primary := strings.TrimSpace(contentType)
	if i := strings.IndexByte(primary, ';'); i >= 0 {
		primary = strings.TrimSpace(primary[:i])
	}
	primary = strings.ToLower(primary)

	if primary == "" {
		return "", ErrNoContentType
	}

	if primary == MimePlainText && endsInMarkdown(rawURL) {
		return MimeMarkdown, nil
	}
	if markdownAliases[primary] {
		return MimeMarkdown, nil
	}
	if primary == xmlAlias {
		return MimeXML, nil
	}

	return primary, nil
}

// endsInMarkdown reports whether the URL path ends in ".md".
// Query strings and fragments are ignored.
func endsInMarkdown(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.HasSuffix(rawURL, ".md")
	}
	return strings.HasSuffix(u.Path, ".md")
}

// validateScheme rejects anything that is not plain http or https.
func validateScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownProtocol, err)
	}
	switch u.Scheme {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProtocol, u.Scheme)
	}
}
