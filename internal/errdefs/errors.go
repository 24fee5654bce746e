// Package errdefs defines the error taxonomy shared by the ingestion,
// retrieval and generation services. Callers match with errors.Is after
// wrapping with fmt.Errorf("...: %w", err).
package errdefs

import "errors"

var (
	// ErrUnsupportedType is returned when a file's declared type is not in
	// the supported set (pdf, txt, md, docx).
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrExtractionFailure is returned when a file of a supported type
	// cannot be read (corrupt archive, unreadable PDF, ...).
	ErrExtractionFailure = errors.New("text extraction failed")

	// ErrEmbeddingBatchMismatch is returned when the embedding provider
	// returns a different number of vectors than texts requested. The whole
	// batch is discarded; vectors must never be paired with the wrong text.
	ErrEmbeddingBatchMismatch = errors.New("embedding batch count mismatch")

	// ErrProviderUnavailable is returned before any network call when a
	// provider has no credentials configured.
	ErrProviderUnavailable = errors.New("ai provider unavailable")

	// ErrProviderTimeout is returned when a provider call exceeds its
	// deadline.
	ErrProviderTimeout = errors.New("ai provider timeout")

	// ErrProviderError is returned on a non-success provider response.
	ErrProviderError = errors.New("ai provider error")

	// ErrEmptyInput is returned for blank prompts or queries, before any
	// network call.
	ErrEmptyInput = errors.New("empty input")

	// ErrScopeRequired is returned when a search is invoked without any
	// knowledge-base or bot scope. Searching the whole corpus by default
	// would leak data across tenants, so an empty scope set is an error,
	// never a wildcard.
	ErrScopeRequired = errors.New("at least one knowledge scope is required")
)
