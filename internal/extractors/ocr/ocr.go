// Package ocr shells out to the poppler and tesseract toolchains for text
// recovery from scanned PDFs and images. External binaries are reached
// through the Runner interface so tests never execute anything.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Config holds binary locations and rasterisation tunables.
type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang     string // tesseract language pack, default "eng"
	DPI      int    // rasterisation DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit
}

// Client runs the OCR toolchain.
type Client struct {
	cfg    Config
	runner Runner
}

// NewClient creates an OCR client with defaults applied.
func NewClient(cfg Config) *Client {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Client{cfg: cfg, runner: execRunner{}}
}

// PDFText extracts the native text layer of a PDF.
func (c *Client) PDFText(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := c.runner.Run(ctx, c.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// PDFOCR rasterises the PDF page by page and recognises each image. Pages
// that fail recognition are skipped; the call fails only when no page
// yields text at all.
func (c *Client) PDFOCR(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docsync-ocr-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove temp dir %q: %v\n", tmpDir, rerr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := c.runner.Run(ctx, c.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", c.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if c.cfg.MaxPages > 0 && len(matches) > c.cfg.MaxPages {
		matches = matches[:c.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm rendered no pages")
	}

	var b strings.Builder
	recognised := 0
	for _, img := range matches {
		txt, oerr := c.ImageOCR(ctx, img)
		if oerr != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		recognised++
	}
	if recognised == 0 {
		return "", fmt.Errorf("ocr recognised no pages out of %d", len(matches))
	}
	return b.String(), nil
}

// ImageOCR recognises text in a single image file.
func (c *Client) ImageOCR(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := c.runner.Run(ctx, c.cfg.Tesseract, path, "stdout", "-l", c.cfg.Lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
