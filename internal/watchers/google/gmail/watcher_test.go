package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := NewCursor()
	cursor.Advance(1756500000000)

	decoded, err := DecodeCursor(cursor.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(1756500000000), decoded.InternalDate)
}

func TestDecodeCursorInvalid(t *testing.T) {
	_, err := DecodeCursor("%%%")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "has:attachment", buildQuery("", NewCursor()))

	cursor := NewCursor()
	cursor.Advance(1756500000500)
	assert.Equal(t,
		"has:attachment from:invoices@example.com after:1756500000",
		buildQuery("from:invoices@example.com", cursor))
}

func TestAttachmentDescriptors(t *testing.T) {
	w := New(nil, "gmail-1", "")

	msg := &gmailv1.Message{
		Id: "msg-1",
		Payload: &gmailv1.MessagePart{
			PartId: "0",
			Parts: []*gmailv1.MessagePart{
				{PartId: "1", MimeType: "text/plain"}, // body, no filename
				{
					PartId:   "2",
					Filename: "invoice.pdf",
					Body:     &gmailv1.MessagePartBody{AttachmentId: "att-1", Size: 1024},
				},
				{
					PartId:   "3",
					Filename: "photo.exe", // unsupported extension
					Body:     &gmailv1.MessagePartBody{AttachmentId: "att-2", Size: 99},
				},
			},
		},
	}

	descriptors := w.attachmentDescriptors(msg)
	require.Len(t, descriptors, 1)

	desc := descriptors[0]
	assert.Equal(t, "gmail-1", desc.SourceID)
	assert.Equal(t, "msg-1/2", desc.ID)
	assert.Equal(t, "invoice.pdf", desc.Name)
	assert.Equal(t, domain.FormatPDF, desc.Format)
	assert.Equal(t, "msg-1/att-1", desc.FetchRef)
	assert.NotEmpty(t, desc.Fingerprint)
}

func TestAttachmentDescriptorsNestedParts(t *testing.T) {
	w := New(nil, "gmail-1", "")

	msg := &gmailv1.Message{
		Id: "msg-2",
		Payload: &gmailv1.MessagePart{
			PartId: "0",
			Parts: []*gmailv1.MessagePart{
				{
					PartId:   "1",
					MimeType: "multipart/mixed",
					Parts: []*gmailv1.MessagePart{
						{
							PartId:   "1.1",
							Filename: "contract.docx",
							Body:     &gmailv1.MessagePartBody{AttachmentId: "att-9", Size: 2048},
						},
					},
				},
			},
		},
	}

	descriptors := w.attachmentDescriptors(msg)
	require.Len(t, descriptors, 1)
	assert.Equal(t, domain.FormatDocx, descriptors[0].Format)
}

func TestFingerprintIgnoresAttachmentID(t *testing.T) {
	// Gmail rotates attachment IDs between fetches; the fingerprint must
	// stay stable across rotations.
	partA := &gmailv1.MessagePart{
		PartId:   "2",
		Filename: "invoice.pdf",
		Body:     &gmailv1.MessagePartBody{AttachmentId: "att-first", Size: 1024},
	}
	partB := &gmailv1.MessagePart{
		PartId:   "2",
		Filename: "invoice.pdf",
		Body:     &gmailv1.MessagePartBody{AttachmentId: "att-second", Size: 1024},
	}

	assert.Equal(t, fingerprintAttachment("msg-1", partA), fingerprintAttachment("msg-1", partB))
}
