package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

func TestExtractNormalisesLineEndings(t *testing.T) {
	e := New()

	content, err := e.Extract(context.Background(), []byte("first\r\nsecond\rthird\n"), domain.DocumentDescriptor{})
	require.NoError(t, err)

	assert.Equal(t, "first\nsecond\nthird", content.Text)
	assert.Equal(t, domain.MethodNative, content.Method)
	assert.False(t, content.Empty)
}

func TestExtractCollapsesBlankRuns(t *testing.T) {
	e := New()

	content, err := e.Extract(context.Background(), []byte("a\n\n\n\nb"), domain.DocumentDescriptor{})
	require.NoError(t, err)

	assert.Equal(t, "a\n\nb", content.Text)
}

func TestExtractStripsTrailingWhitespace(t *testing.T) {
	e := New()

	content, err := e.Extract(context.Background(), []byte("line one   \nline two\t\n"), domain.DocumentDescriptor{})
	require.NoError(t, err)

	assert.Equal(t, "line one\nline two", content.Text)
}

func TestExtractReplacesInvalidUTF8(t *testing.T) {
	e := New()

	content, err := e.Extract(context.Background(), []byte{'o', 'k', 0xff, '!'}, domain.DocumentDescriptor{})
	require.NoError(t, err)

	assert.Equal(t, "ok�!", content.Text)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatPlain}, New().Formats())
}
