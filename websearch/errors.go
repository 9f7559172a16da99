package websearch

import "errors"

var (
	// ErrClientRequired is returned when an HTTP client is not provided.
	ErrClientRequired = errors.New("http client required")

	// ErrEmptyQuery indicates an empty or whitespace-only query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrSequenceConsumed indicates a result sequence was ranged over twice.
	ErrSequenceConsumed = errors.New("result sequence already consumed")

	// ErrProviderStatus indicates a non-success status from the search provider.
	ErrProviderStatus = errors.New("search provider error")
)
