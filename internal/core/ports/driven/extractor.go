package driven

import (
	"context"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// TextExtractor converts raw bytes of one format into normalised plain
// text. Implementations fail with a domain.ExtractionError; failures are
// fatal for the document only, never for the run.
type TextExtractor interface {
	// Formats returns the format tags this extractor handles.
	Formats() []domain.Format

	// Extract produces normalised text from raw bytes. Temporary buffers
	// and files are released before returning, on success or failure.
	Extract(ctx context.Context, raw []byte, desc domain.DocumentDescriptor) (*domain.ExtractedContent, error)
}

// ExtractorRegistry selects the extractor for a document's format tag.
// Unknown formats are a hard domain.ExtractionError; nothing is guessed.
type ExtractorRegistry interface {
	// Extract dispatches to the extractor registered for the format.
	Extract(ctx context.Context, raw []byte, desc domain.DocumentDescriptor) (*domain.ExtractedContent, error)

	// Register adds an extractor for its declared formats.
	Register(extractor TextExtractor)

	// SupportedFormats returns all format tags with a registered extractor.
	SupportedFormats() []domain.Format
}
