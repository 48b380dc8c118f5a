// Package drive watches a Google Drive folder for documents. Native Drive
// files are downloaded as-is; Google Docs are exported as plain text.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	drivev3 "google.golang.org/api/drive/v3"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsync-cli/internal/logger"
	"github.com/custodia-labs/docsync-cli/internal/watchers/google"
)

var _ driven.SourceWatcher = (*Watcher)(nil)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc = "application/vnd.google-apps.document"
	MimeTypeFolder    = "application/vnd.google-apps.folder"
)

// ExportMimeText is the export format for Google Docs.
const ExportMimeText = "text/plain"

// MaxFetchSize caps downloaded and exported content (20MB).
const MaxFetchSize = 20 * 1024 * 1024

// pageSize is the Drive listing page size.
const pageSize = 100

// googleDocRef prefixes FetchRef values that need an export rather than a
// download.
const googleDocRef = "export:"

// formatByMime maps Drive MIME types to format tags. MIME types not
// listed here are not documents and never produce descriptors.
var formatByMime = map[string]domain.Format{
	"application/pdf": domain.FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": domain.FormatDocx,
	"application/rtf": domain.FormatRTF,
	"text/rtf":        domain.FormatRTF,
	"text/plain":      domain.FormatPlain,
	"text/markdown":   domain.FormatPlain,
	"image/png":       domain.FormatImage,
	"image/jpeg":      domain.FormatImage,
	"image/tiff":      domain.FormatImage,
}

// Watcher enumerates documents in a Drive folder.
type Watcher struct {
	svc      *drivev3.Service
	limiter  *google.RateLimiter
	sourceID string
	folderID string
}

// New creates a Drive watcher. folderID restricts the listing to one
// folder; empty means the whole accessible drive.
func New(svc *drivev3.Service, sourceID, folderID string) *Watcher {
	return &Watcher{
		svc:      svc,
		limiter:  google.NewRateLimiter(google.ServiceDrive),
		sourceID: sourceID,
		folderID: folderID,
	}
}

// Type returns the watcher type.
func (w *Watcher) Type() string { return "drive" }

// SourceID returns the source identifier.
func (w *Watcher) SourceID() string { return w.sourceID }

// ListSince enumerates files modified after the cursor's watermark.
func (w *Watcher) ListSince(ctx context.Context, checkpoint string) ([]domain.DocumentDescriptor, string, error) {
	cursor, err := DecodeCursor(checkpoint)
	if err != nil {
		logger.Warn("Invalid checkpoint for %s, rescanning: %v", w.sourceID, err)
		cursor = NewCursor()
	}

	query := w.buildQuery(cursor)

	var descriptors []domain.DocumentDescriptor
	pageToken := ""
	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}

		call := w.svc.Files.List().
			Q(query).
			PageSize(pageSize).
			Fields("nextPageToken, files(id, name, mimeType, modifiedTime, md5Checksum, size, version, trashed)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			if google.IsRateLimited(err) {
				w.limiter.RecordRateLimitError(0)
			}
			return nil, "", fmt.Errorf("list drive files: %w", err)
		}

		for _, file := range page.Files {
			cursor.Advance(file.ModifiedTime)
			desc, ok := w.toDescriptor(file)
			if !ok {
				continue
			}
			descriptors = append(descriptors, desc)
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return descriptors, cursor.Encode(), nil
}

// buildQuery assembles the Drive search query for one listing.
func (w *Watcher) buildQuery(cursor *Cursor) string {
	terms := []string{"trashed = false"}
	if w.folderID != "" {
		terms = append(terms, fmt.Sprintf("'%s' in parents", w.folderID))
	}
	if !cursor.IsEmpty() {
		terms = append(terms, fmt.Sprintf("modifiedTime > '%s'", cursor.LastModified))
	}
	return strings.Join(terms, " and ")
}

// toDescriptor converts a Drive file to a descriptor. Folders and
// unsupported MIME types are dropped.
func (w *Watcher) toDescriptor(file *drivev3.File) (domain.DocumentDescriptor, bool) {
	if file.MimeType == MimeTypeFolder || file.Trashed {
		return domain.DocumentDescriptor{}, false
	}

	format, fetchRef := domain.FormatPlain, file.Id
	if file.MimeType == MimeTypeGoogleDoc {
		// Google Docs have no native bytes; export as plain text on fetch.
		fetchRef = googleDocRef + file.Id
	} else {
		var ok bool
		format, ok = formatByMime[file.MimeType]
		if !ok {
			logger.Debug("Skipping %s: unsupported MIME type %s", file.Name, file.MimeType)
			return domain.DocumentDescriptor{}, false
		}
	}

	if file.Size > MaxFetchSize {
		logger.Warn("Skipping %s: %d bytes exceeds fetch limit", file.Name, file.Size)
		return domain.DocumentDescriptor{}, false
	}

	return domain.DocumentDescriptor{
		SourceID:    w.sourceID,
		ID:          file.Id,
		Name:        file.Name,
		Format:      format,
		Fingerprint: fingerprintFile(file),
		FetchRef:    fetchRef,
	}, true
}

// fingerprintFile derives a revision fingerprint. Binary files carry an
// MD5 from Drive; Google Docs fall back to version and modification time.
func fingerprintFile(file *drivev3.File) string {
	if file.Md5Checksum != "" {
		return file.Md5Checksum
	}
	return fmt.Sprintf("v%d:%s", file.Version, file.ModifiedTime)
}

// FetchBytes downloads or exports the file content.
func (w *Watcher) FetchBytes(ctx context.Context, desc domain.DocumentDescriptor) ([]byte, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if fileID, ok := strings.CutPrefix(desc.FetchRef, googleDocRef); ok {
		return w.export(ctx, fileID)
	}
	return w.download(ctx, desc.FetchRef)
}

// download retrieves native file bytes.
func (w *Watcher) download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := w.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		if google.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		if google.IsRateLimited(err) {
			w.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("download drive file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("read drive file: %w", err)
	}
	return data, nil
}

// export converts a Google Doc to plain text.
func (w *Watcher) export(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := w.svc.Files.Export(fileID, ExportMimeText).Context(ctx).Download()
	if err != nil {
		if google.IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		if google.IsRateLimited(err) {
			w.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("export drive file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchSize))
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return data, nil
}

// Close releases resources. The Drive service holds no connections of its
// own.
func (w *Watcher) Close() error { return nil }
