package fetch

import "errors"

var (
	// ErrClientRequired is returned when an HTTP client is not provided.
	ErrClientRequired = errors.New("http client required")

	// ErrUnknownProtocol indicates a URL scheme other than http or https.
	// No network call is attempted for such URLs.
	ErrUnknownProtocol = errors.New("unknown protocol")

	// ErrNoContentType indicates the server declared no content type.
	ErrNoContentType = errors.New("no content type")

	// ErrHTTPStatus indicates a non-success HTTP status after retries settled.
	ErrHTTPStatus = errors.New("HTTP error")

	// ErrBodyTooLarge indicates the response body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)
