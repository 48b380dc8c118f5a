package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the format tags this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatPlain}
}

// Extract normalises raw bytes to UTF-8 text with unix line endings.
func (e *Extractor) Extract(_ context.Context, raw []byte, _ domain.DocumentDescriptor) (*domain.ExtractedContent, error) {
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return &domain.ExtractedContent{
		Text:   Normalise(text),
		Method: domain.MethodNative,
	}, nil
}

// Normalise converts line endings to unix, strips trailing whitespace per
// line and collapses runs of blank lines.
func Normalise(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	var b strings.Builder
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
