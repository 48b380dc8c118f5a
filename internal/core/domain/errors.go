package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no extractor handles a document format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrRunInProgress indicates a sync run is already active for the store.
	ErrRunInProgress = errors.New("sync run in progress")

	// ErrRunDeadline indicates the run-level deadline expired before the
	// document was picked up. The document is retried on the next tick.
	ErrRunDeadline = errors.New("run deadline exceeded")

	// ErrRateLimited indicates the remote API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// TransportKind classifies a remote store client failure.
type TransportKind string

const (
	// TransportHTTPError is a non-2xx response from the remote API.
	TransportHTTPError TransportKind = "HTTP_ERROR"

	// TransportTimeout is a request that exceeded its operation timeout.
	TransportTimeout TransportKind = "TIMEOUT"

	// TransportConnectionError is a failure to reach the remote API at all.
	TransportConnectionError TransportKind = "CONNECTION_ERROR"
)

// TransportError is the normalised failure value returned by the remote
// store client. The client never retries; callers inspect Kind to decide
// whether the operation is worth repeating.
type TransportError struct {
	// Kind classifies the failure.
	Kind TransportKind

	// Status is the HTTP status code for HTTP_ERROR, zero otherwise.
	Status int

	// Detail is a human-readable description, typically the response body.
	Detail string
}

func (e *TransportError) Error() string {
	if e.Kind == TransportHTTPError {
		return fmt.Sprintf("transport error (%s, status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("transport error (%s): %s", e.Kind, e.Detail)
}

// ExtractionError indicates text extraction failed for one document.
// It is fatal for the document only, never for the run.
type ExtractionError struct {
	// Format is the document format tag that was being extracted.
	Format Format

	// Reason describes what went wrong.
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %s", e.Format, e.Reason)
}

// TranslationError indicates language detection or translation failed.
// A failed translation blocks upload for the affected document; the
// untranslated text is never substituted.
type TranslationError struct {
	Reason string
}

func (e *TranslationError) Error() string {
	return "translation failed: " + e.Reason
}

// IndexTimeoutError indicates the uploaded document did not become
// queryable within the configured polling budget.
type IndexTimeoutError struct {
	// Attempts is how many chunk-page polls were made before giving up.
	Attempts int
}

func (e *IndexTimeoutError) Error() string {
	return fmt.Sprintf("index wait timed out after %d attempts", e.Attempts)
}

// ConfigurationError indicates missing or invalid configuration.
// Unlike the per-document errors above it aborts the entire run before
// any document is processed.
type ConfigurationError struct {
	// Field is the configuration key at fault.
	Field string

	// Reason describes why the value is unusable.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Reason)
}
