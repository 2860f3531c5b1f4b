package types

import "errors"

// Failure taxonomy surfaced by the indexing and query paths. Errors are
// wrapped with %w so callers can match them with errors.Is.
var (
	// ErrSourceUnavailable indicates the source document is missing or
	// unreadable at index time. Indexing for that document is skipped,
	// not fatal.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrEmbeddingFailure indicates the embedding provider failed for a
	// chunk. The whole index pass for the document aborts; state written
	// for already-processed chunks is retained (idempotent upsert makes
	// re-running safe).
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrStoreUnavailable indicates the persistent store could not be
	// opened or written. Fatal to the operation invoked.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrIndexInProgress indicates another index pass is already in
	// flight for the same source. Callers serialize indexing per document.
	ErrIndexInProgress = errors.New("indexing already in progress")
)

// Validation errors for result types.
var (
	ErrEmptyContent     = errors.New("content cannot be empty")
	ErrMissingSource    = errors.New("source ID is required")
	ErrInvalidLineRange = errors.New("invalid line range")
)
