// Package rtf extracts plain text from rich-text documents. The parser
// walks the control-word stream directly; it keeps visible text, maps the
// common formatting words to whitespace and skips non-text destinations
// such as font tables and embedded pictures.
package rtf

import (
	"context"
	"strconv"
	"strings"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsync-cli/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles rich-text documents.
type Extractor struct{}

// New creates a new RTF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the format tags this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatRTF}
}

// Extract strips RTF markup and returns the visible text.
func (e *Extractor) Extract(_ context.Context, raw []byte, desc domain.DocumentDescriptor) (*domain.ExtractedContent, error) {
	if !strings.HasPrefix(string(raw[:min(len(raw), 5)]), `{\rtf`) {
		return nil, &domain.ExtractionError{Format: desc.Format, Reason: "missing RTF header"}
	}

	return &domain.ExtractedContent{
		Text:   plaintext.Normalise(stripMarkup(raw)),
		Method: domain.MethodNative,
	}, nil
}

// skipDestinations are group destinations whose content is never visible
// text.
var skipDestinations = map[string]bool{
	"fonttbl":    true,
	"colortbl":   true,
	"stylesheet": true,
	"info":       true,
	"pict":       true,
	"object":     true,
	"header":     true,
	"footer":     true,
}

//nolint:gocyclo // Tokeniser switch over the RTF control stream
func stripMarkup(raw []byte) string {
	var b strings.Builder
	skipDepth := 0 // group nesting depth inside a skipped destination
	depth := 0

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '{':
			depth++
		case '}':
			if skipDepth > 0 && depth == skipDepth {
				skipDepth = 0
			}
			depth--
		case '\\':
			word, param, next := readControl(raw, i+1)
			i = next - 1
			if skipDepth > 0 {
				continue
			}
			switch word {
			case "par", "line", "row":
				b.WriteByte('\n')
			case "tab", "cell":
				b.WriteByte('\t')
			case "'":
				// \'hh hexadecimal escape
				if v, err := strconv.ParseUint(param, 16, 8); err == nil {
					b.WriteRune(rune(v))
				}
			case "u":
				// \uN unicode escape; the following fallback character is
				// consumed by readControl's caller via the ? convention.
				if v, err := strconv.ParseInt(param, 10, 32); err == nil && v > 0 {
					b.WriteRune(rune(v))
				}
				if i+1 < len(raw) && raw[i+1] == '?' {
					i++
				}
			case "*":
				// \* marks an ignorable destination.
				skipDepth = depth
			case "{", "}", "\\":
				b.WriteByte(word[0])
			default:
				if skipDestinations[word] {
					skipDepth = depth
				}
			}
		case '\r', '\n':
			// Raw newlines in the stream are not text.
		default:
			if skipDepth == 0 {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// readControl parses the control word or symbol starting at raw[start] and
// returns the word, its parameter digits and the index of the first byte
// after the control.
func readControl(raw []byte, start int) (word, param string, next int) {
	if start >= len(raw) {
		return "", "", start
	}

	c := raw[start]
	// Control symbol: a single non-alphabetic character.
	if !isAlpha(c) {
		if c == '\'' {
			// Hex escape carries exactly two digits.
			end := min(start+3, len(raw))
			return "'", string(raw[start+1 : end]), end
		}
		return string(c), "", start + 1
	}

	i := start
	for i < len(raw) && isAlpha(raw[i]) {
		i++
	}
	word = string(raw[start:i])

	j := i
	if j < len(raw) && raw[j] == '-' {
		j++
	}
	for j < len(raw) && raw[j] >= '0' && raw[j] <= '9' {
		j++
	}
	param = string(raw[i:j])

	// A single trailing space terminates the control word and is not text.
	if j < len(raw) && raw[j] == ' ' {
		j++
	}
	return word, param, j
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
