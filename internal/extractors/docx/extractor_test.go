package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(documentXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	// Add [Content_Types].xml (required for valid DOCX)
	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	w.Close()
	return buf.Bytes()
}

func docxDescriptor() domain.DocumentDescriptor {
	return domain.DocumentDescriptor{ID: "doc-1", Name: "report.docx", Format: domain.FormatDocx}
}

func TestExtractParagraphText(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
</w:body>
</w:document>`

	content, err := New().Extract(context.Background(), createTestDOCX(docXML), docxDescriptor())
	require.NoError(t, err)

	assert.Equal(t, "Hello World\nSecond paragraph", content.Text)
	assert.Equal(t, domain.MethodNative, content.Method)
}

func TestExtractJoinsRunsWithinParagraph(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
</w:body>
</w:document>`

	content, err := New().Extract(context.Background(), createTestDOCX(docXML), docxDescriptor())
	require.NoError(t, err)

	assert.Equal(t, "Hello World", content.Text)
}

func TestExtractNotAZip(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("plain bytes"), docxDescriptor())

	var xerr *domain.ExtractionError
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, domain.FormatDocx, xerr.Format)
}

func TestExtractMissingDocumentXML(t *testing.T) {
	content, err := New().Extract(context.Background(), createTestDOCX(""), docxDescriptor())
	require.NoError(t, err)

	assert.Empty(t, content.Text)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []domain.Format{domain.FormatDocx}, New().Formats())
}
