package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

type stubExtractor struct {
	formats []domain.Format
	text    string
}

func (s *stubExtractor) Formats() []domain.Format { return s.formats }

func (s *stubExtractor) Extract(_ context.Context, _ []byte, _ domain.DocumentDescriptor) (*domain.ExtractedContent, error) {
	return &domain.ExtractedContent{Text: s.text, Method: domain.MethodNative}, nil
}

func TestRegistryDispatchesByFormat(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{formats: []domain.Format{domain.FormatPlain}, text: "plain result"})
	r.Register(&stubExtractor{formats: []domain.Format{domain.FormatPDF}, text: "pdf result"})

	content, err := r.Extract(context.Background(), []byte("x"), domain.DocumentDescriptor{Format: domain.FormatPDF})
	require.NoError(t, err)
	assert.Equal(t, "pdf result", content.Text)
}

func TestRegistryRejectsUnknownFormat(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{formats: []domain.Format{domain.FormatPlain}})

	_, err := r.Extract(context.Background(), []byte("x"), domain.DocumentDescriptor{Format: domain.Format("xlsx")})

	var xerr *domain.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Reason, "no extractor registered")
}

func TestRegistryFlagsWhitespaceOnlyText(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{formats: []domain.Format{domain.FormatPlain}, text: "  \n\t  "})

	content, err := r.Extract(context.Background(), []byte("x"), domain.DocumentDescriptor{Format: domain.FormatPlain})
	require.NoError(t, err)

	assert.True(t, content.Empty)
	assert.Empty(t, content.Text)
}

func TestRegistrySupportedFormats(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubExtractor{formats: []domain.Format{domain.FormatPlain, domain.FormatRTF}})
	r.Register(&stubExtractor{formats: []domain.Format{domain.FormatDocx}})

	assert.Equal(t, []domain.Format{domain.FormatDocx, domain.FormatPlain, domain.FormatRTF}, r.SupportedFormats())
}
