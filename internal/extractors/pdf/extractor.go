// Package pdf extracts text from PDF documents. The native text layer is
// preferred; scanned documents whose layer is missing or too thin fall
// back to OCR over rasterised pages.
package pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsync-cli/internal/extractors/ocr"
	"github.com/custodia-labs/docsync-cli/internal/extractors/plaintext"
	"github.com/custodia-labs/docsync-cli/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Toolchain is the slice of the OCR client this extractor needs. Stubbed
// in tests.
type Toolchain interface {
	PDFText(ctx context.Context, path string) (string, error)
	PDFOCR(ctx context.Context, path string) (string, error)
}

var _ Toolchain = (*ocr.Client)(nil)

// Extractor handles PDF documents.
type Extractor struct {
	ocr Toolchain

	// minNativeTextLen is the threshold below which the native text layer
	// is considered absent and the OCR fallback engaged.
	minNativeTextLen int
}

// New creates a PDF extractor. minNativeTextLen of zero disables the OCR
// fallback for thin-but-present text layers.
func New(toolchain Toolchain, minNativeTextLen int) *Extractor {
	return &Extractor{ocr: toolchain, minNativeTextLen: minNativeTextLen}
}

// Formats returns the format tags this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatPDF}
}

// Extract validates the PDF, tries the native text layer and falls back
// to OCR when the layer is too thin to be the real content.
func (e *Extractor) Extract(ctx context.Context, raw []byte, desc domain.DocumentDescriptor) (*domain.ExtractedContent, error) {
	path, cleanup, err := writeTemp(raw)
	if err != nil {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("stage temp file: %v", err)}
	}
	defer cleanup()

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, cfg); err != nil {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("invalid pdf: %v", err)}
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("page count: %v", err)}
	}

	native, err := e.ocr.PDFText(ctx, path)
	if err != nil {
		logger.Debug("Native text layer unavailable for %s: %v", desc.Name, err)
		native = ""
	}
	native = plaintext.Normalise(native)
	if len(native) >= e.minNativeTextLen && native != "" {
		return &domain.ExtractedContent{Text: native, Method: domain.MethodNative}, nil
	}

	logger.Debug("Falling back to OCR for %s (%d pages, %d native chars)", desc.Name, pages, len(native))
	recognised, err := e.ocr.PDFOCR(ctx, path)
	if err != nil {
		// A thin native layer is still better than nothing when OCR is
		// unavailable.
		if native != "" {
			return &domain.ExtractedContent{Text: native, Method: domain.MethodNative}, nil
		}
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("ocr fallback: %v", err)}
	}
	return &domain.ExtractedContent{Text: plaintext.Normalise(recognised), Method: domain.MethodOCR}, nil
}

// writeTemp stages raw bytes as a temp file for the external toolchain.
func writeTemp(raw []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "docsync-*.pdf")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			logger.Warn("Failed to remove temp file %s: %v", path, rerr)
		}
	}

	if _, err := f.Write(raw); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
