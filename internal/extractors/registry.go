package extractors

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches extraction by format tag. Unknown tags are rejected
// rather than guessed at; registration happens once at startup so no
// locking is needed.
type Registry struct {
	byFormat map[domain.Format]driven.TextExtractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{byFormat: make(map[domain.Format]driven.TextExtractor)}
}

// Register adds an extractor for each of its declared formats. A later
// registration for the same format wins.
func (r *Registry) Register(extractor driven.TextExtractor) {
	for _, format := range extractor.Formats() {
		r.byFormat[format] = extractor
	}
}

// SupportedFormats returns all format tags with a registered extractor.
func (r *Registry) SupportedFormats() []domain.Format {
	out := make([]domain.Format, 0, len(r.byFormat))
	for format := range r.byFormat {
		out = append(out, format)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Extract dispatches to the extractor registered for the document's format
// and applies the empty-text check on the way out.
func (r *Registry) Extract(ctx context.Context, raw []byte, desc domain.DocumentDescriptor) (*domain.ExtractedContent, error) {
	extractor, ok := r.byFormat[desc.Format]
	if !ok {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: "no extractor registered for format"}
	}

	content, err := extractor.Extract(ctx, raw, desc)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content.Text) == "" {
		content.Text = ""
		content.Empty = true
	}
	return content, nil
}
