package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner stubs the external toolchain. pdftoppm invocations render
// fake page images so the glob in PDFOCR finds something.
type fakeRunner struct {
	pages        int
	pdftotextOut string
	tesseractOut map[string]string // keyed by page basename
	failAll      bool
	calls        []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name)
	if f.failAll {
		return nil, []byte("boom"), errors.New("exit status 1")
	}

	switch filepath.Base(name) {
	case "pdftotext":
		return []byte(f.pdftotextOut), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			path := prefix + "-" + string(rune('0'+i)) + ".png"
			if err := os.WriteFile(path, []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		page := filepath.Base(args[0])
		return []byte(f.tesseractOut[page]), nil, nil
	}
	return nil, nil, errors.New("unexpected command")
}

func newTestClient(runner Runner) *Client {
	client := NewClient(Config{})
	client.runner = runner
	return client
}

func TestPDFTextReturnsNativeLayer(t *testing.T) {
	runner := &fakeRunner{pdftotextOut: "native text layer"}
	client := newTestClient(runner)

	text, err := client.PDFText(context.Background(), "/tmp/in.pdf")
	require.NoError(t, err)

	assert.Equal(t, "native text layer", text)
	assert.Equal(t, []string{"pdftotext"}, runner.calls)
}

func TestPDFOCRJoinsPagesWithBreaks(t *testing.T) {
	runner := &fakeRunner{
		pages: 2,
		tesseractOut: map[string]string{
			"page-1.png": "first page",
			"page-2.png": "second page",
		},
	}
	client := newTestClient(runner)

	text, err := client.PDFOCR(context.Background(), "/tmp/in.pdf")
	require.NoError(t, err)

	assert.Equal(t, "first page\n\f\nsecond page", text)
	assert.Equal(t, []string{"pdftoppm", "tesseract", "tesseract"}, runner.calls)
}

func TestPDFOCRNoPagesRendered(t *testing.T) {
	client := newTestClient(&fakeRunner{pages: 0})

	_, err := client.PDFOCR(context.Background(), "/tmp/in.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendered no pages")
}

func TestPDFOCRToolchainFailure(t *testing.T) {
	client := newTestClient(&fakeRunner{failAll: true})

	_, err := client.PDFOCR(context.Background(), "/tmp/in.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm")
}

func TestImageOCR(t *testing.T) {
	runner := &fakeRunner{tesseractOut: map[string]string{"scan.png": "recognised"}}
	client := newTestClient(runner)

	text, err := client.ImageOCR(context.Background(), "/tmp/scan.png")
	require.NoError(t, err)
	assert.Equal(t, "recognised", text)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	assert.Equal(t, "pdftotext", client.cfg.Pdftotext)
	assert.Equal(t, "pdftoppm", client.cfg.Pdftoppm)
	assert.Equal(t, "tesseract", client.cfg.Tesseract)
	assert.Equal(t, "eng", client.cfg.Lang)
	assert.Equal(t, 300, client.cfg.DPI)
}
