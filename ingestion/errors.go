package ingestion

import "errors"

var (
	// ErrMissingInput is returned when the raw recipe file does not exist.
	ErrMissingInput = errors.New("raw recipe file not found")

	// ErrBadHeader is returned when the raw file lacks a required column.
	ErrBadHeader = errors.New("raw recipe file has an invalid header")

	// ErrMalformedRow marks a row that could not be read as CSV.
	ErrMalformedRow = errors.New("malformed raw row")

	// ErrEmptyCorpus is returned when no recipe survives cleaning.
	ErrEmptyCorpus = errors.New("no recipes left after cleaning")

	// ErrDimensionMismatch is returned when the embedder yields vectors of
	// differing lengths within one build.
	ErrDimensionMismatch = errors.New("embedding dimensions differ")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
