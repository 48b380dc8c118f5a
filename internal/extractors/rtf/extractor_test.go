package rtf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

func rtfDescriptor() domain.DocumentDescriptor {
	return domain.DocumentDescriptor{ID: "doc-1", Name: "letter.rtf", Format: domain.FormatRTF}
}

func extract(t *testing.T, input string) string {
	t.Helper()
	content, err := New().Extract(context.Background(), []byte(input), rtfDescriptor())
	require.NoError(t, err)
	return content.Text
}

func TestExtractPlainParagraphs(t *testing.T) {
	text := extract(t, `{\rtf1\ansi Hello World\par Second line\par}`)
	assert.Equal(t, "Hello World\nSecond line", text)
}

func TestExtractSkipsFontTable(t *testing.T) {
	text := extract(t, `{\rtf1\ansi{\fonttbl{\f0 Times New Roman;}}Visible text\par}`)
	assert.Equal(t, "Visible text", text)
}

func TestExtractSkipsIgnorableDestination(t *testing.T) {
	text := extract(t, `{\rtf1\ansi{\*\generator Writer 7;}Body text\par}`)
	assert.Equal(t, "Body text", text)
}

func TestExtractHexEscape(t *testing.T) {
	text := extract(t, `{\rtf1\ansi caf\'e9\par}`)
	assert.Equal(t, "café", text)
}

func TestExtractUnicodeEscape(t *testing.T) {
	text := extract(t, "{\\rtf1\\ansi snow \\u9731?\\par}")
	assert.Equal(t, "snow ☃", text)
}

func TestExtractEscapedBraces(t *testing.T) {
	text := extract(t, `{\rtf1\ansi a \{b\} c\par}`)
	assert.Equal(t, "a {b} c", text)
}

func TestExtractMissingHeader(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("just text"), rtfDescriptor())

	var xerr *domain.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Contains(t, xerr.Reason, "missing RTF header")
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatRTF}, New().Formats())
}
