// Package image routes image-only documents straight through OCR.
package image

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsync-cli/internal/extractors/ocr"
	"github.com/custodia-labs/docsync-cli/internal/extractors/plaintext"
	"github.com/custodia-labs/docsync-cli/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Toolchain is the slice of the OCR client this extractor needs.
type Toolchain interface {
	ImageOCR(ctx context.Context, path string) (string, error)
}

var _ Toolchain = (*ocr.Client)(nil)

// Extractor handles image-only documents.
type Extractor struct {
	ocr Toolchain
}

// New creates an image extractor.
func New(toolchain Toolchain) *Extractor {
	return &Extractor{ocr: toolchain}
}

// Formats returns the format tags this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatImage}
}

// Extract stages the image and runs OCR over it. The temp file keeps the
// source extension because tesseract sniffs by name first.
func (e *Extractor) Extract(ctx context.Context, raw []byte, desc domain.DocumentDescriptor) (*domain.ExtractedContent, error) {
	ext := strings.ToLower(filepath.Ext(desc.Name))
	if ext == "" {
		ext = ".png"
	}

	f, err := os.CreateTemp("", "docsync-*"+ext)
	if err != nil {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("stage temp file: %v", err)}
	}
	path := f.Name()
	defer func() {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			logger.Warn("Failed to remove temp file %s: %v", path, rerr)
		}
	}()

	if _, err := f.Write(raw); err != nil {
		f.Close()
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("stage temp file: %v", err)}
	}
	if err := f.Close(); err != nil {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("stage temp file: %v", err)}
	}

	text, err := e.ocr.ImageOCR(ctx, path)
	if err != nil {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("ocr: %v", err)}
	}
	return &domain.ExtractedContent{
		Text:   plaintext.Normalise(text),
		Method: domain.MethodOCR,
	}, nil
}
