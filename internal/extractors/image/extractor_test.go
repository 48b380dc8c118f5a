package image

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

type fakeToolchain struct {
	text     string
	err      error
	seenPath string
}

func (f *fakeToolchain) ImageOCR(_ context.Context, path string) (string, error) {
	f.seenPath = path
	return f.text, f.err
}

func imageDescriptor(name string) domain.DocumentDescriptor {
	return domain.DocumentDescriptor{ID: "doc-1", Name: name, Format: domain.FormatImage}
}

func TestExtractRunsOCROverStagedFile(t *testing.T) {
	tc := &fakeToolchain{text: "recognised text\n"}
	e := New(tc)

	content, err := e.Extract(context.Background(), []byte("fake png"), imageDescriptor("scan.PNG"))
	require.NoError(t, err)

	assert.Equal(t, "recognised text", content.Text)
	assert.Equal(t, domain.MethodOCR, content.Method)

	// The staged file keeps the source extension (lowercased) and is
	// removed after extraction.
	assert.Contains(t, tc.seenPath, ".png")
	_, statErr := os.Stat(tc.seenPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractOCRFailure(t *testing.T) {
	e := New(&fakeToolchain{err: errors.New("tesseract missing")})

	_, err := e.Extract(context.Background(), []byte("fake"), imageDescriptor("scan.jpg"))

	var xerr *domain.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, domain.FormatImage, xerr.Format)
	assert.Contains(t, xerr.Reason, "tesseract missing")
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatImage}, New(&fakeToolchain{}).Formats())
}
