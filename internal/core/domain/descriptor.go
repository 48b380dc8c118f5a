package domain

import "strings"

// Format tags the file format of a source document. It drives extractor
// selection; unknown tags are rejected rather than guessed at.
type Format string

const (
	// FormatPDF is a PDF document, possibly scanned.
	FormatPDF Format = "pdf"

	// FormatDocx is an OOXML word-processing document.
	FormatDocx Format = "docx"

	// FormatRTF is a rich-text document.
	FormatRTF Format = "rtf"

	// FormatPlain is plain text.
	FormatPlain Format = "plain"

	// FormatImage is an image-only document, always routed through OCR.
	FormatImage Format = "image"
)

// DocumentDescriptor identifies a source document as enumerated by a
// source watcher. Descriptors are immutable once created; the watcher that
// produced one is responsible for resolving FetchRef back to raw bytes.
type DocumentDescriptor struct {
	// SourceID links to the watcher configuration that produced this
	// descriptor.
	SourceID string

	// ID is the provider-assigned document identifier, unique within the
	// source.
	ID string

	// Name is the human-readable document name, used as the prediction
	// question after upload.
	Name string

	// Format is the file format tag.
	Format Format

	// Fingerprint identifies the document revision: a sha256 of the raw
	// bytes or a provider-supplied revision id. Equal fingerprints mean
	// the document is unchanged since the last sync.
	Fingerprint string

	// FetchRef is the watcher-specific handle used to retrieve raw bytes
	// (a file path, message/attachment id pair, drive file id).
	FetchRef string
}

// formatByExtension maps lower-case filename extensions to format tags.
var formatByExtension = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDocx,
	".rtf":  FormatRTF,
	".txt":  FormatPlain,
	".md":   FormatPlain,
	".png":  FormatImage,
	".jpg":  FormatImage,
	".jpeg": FormatImage,
	".tif":  FormatImage,
	".tiff": FormatImage,
}

// FormatForFilename maps a filename to its format tag by extension.
// Returns false for extensions that are not recognised documents.
func FormatForFilename(name string) (Format, bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", false
	}
	format, ok := formatByExtension[strings.ToLower(name[idx:])]
	return format, ok
}

// ExtractionMethod records how text was obtained from a document.
type ExtractionMethod string

const (
	// MethodNative is structured text extraction from the container format.
	MethodNative ExtractionMethod = "native"

	// MethodOCR is optical character recognition over rendered pages.
	MethodOCR ExtractionMethod = "ocr"
)

// ExtractedContent is the normalised plain text produced from one
// document's raw bytes. It lives for a single sync cycle and is discarded
// after upload or on failure.
type ExtractedContent struct {
	// Text is the normalised plain text.
	Text string

	// Method records whether native extraction or OCR produced the text.
	Method ExtractionMethod

	// Language is the detected source language code, set during the
	// translation stage. Empty when detection never ran.
	Language string

	// Empty is true when extraction produced no usable text even after
	// the OCR fallback.
	Empty bool
}
