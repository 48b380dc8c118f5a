package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New("fs-1", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNewRejectsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "hello")

	_, err := New("fs-1", path)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "path", cfgErr.Field)
}

func TestListSinceFullScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "report.txt", "quarterly report")
	writeFile(t, dir, "sub/scan.pdf", "%PDF-1.4 fake")
	writeFile(t, dir, "ignore.xyz", "not a document")

	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	descriptors, checkpoint, err := w.ListSince(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, descriptors, 2)
	assert.NotEmpty(t, checkpoint)

	byID := map[string]domain.DocumentDescriptor{}
	for _, d := range descriptors {
		byID[d.ID] = d
	}

	report, ok := byID["report.txt"]
	require.True(t, ok)
	assert.Equal(t, "fs-1", report.SourceID)
	assert.Equal(t, domain.FormatPlain, report.Format)
	assert.Equal(t, "report.txt", report.Name)
	assert.NotEmpty(t, report.Fingerprint)

	scan, ok := byID[filepath.Join("sub", "scan.pdf")]
	require.True(t, ok)
	assert.Equal(t, domain.FormatPDF, scan.Format)
}

func TestListSinceSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "old.txt", "old")

	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	_, checkpoint, err := w.ListSince(context.Background(), "")
	require.NoError(t, err)

	// Nothing changed since the checkpoint.
	descriptors, next, err := w.ListSince(context.Background(), checkpoint)
	require.NoError(t, err)
	assert.Empty(t, descriptors)
	assert.Equal(t, checkpoint, next)

	// A new file with a later mtime is picked up.
	path := writeFile(t, dir, "new.txt", "new")
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	descriptors, next, err = w.ListSince(context.Background(), checkpoint)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, "new.txt", descriptors[0].ID)
	assert.NotEqual(t, checkpoint, next)
}

func TestListSinceInvalidCheckpointRescans(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "content")

	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	descriptors, _, err := w.ListSince(context.Background(), "not-a-timestamp")
	require.NoError(t, err)
	assert.Len(t, descriptors, 1)
}

func TestListSinceSkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".git/config.txt", "hidden")
	writeFile(t, dir, "visible.txt", "visible")

	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	descriptors, _, err := w.ListSince(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, descriptors, 1)
	assert.Equal(t, "visible.txt", descriptors[0].ID)
}

func TestFingerprintStableAcrossTouch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", "same content")

	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	descriptors, _, err := w.ListSince(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	first := descriptors[0].Fingerprint

	// Touch without changing the bytes.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	descriptors, _, err = w.ListSince(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, first, descriptors[0].Fingerprint)
}

func TestFetchBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.txt", "payload")

	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	descriptors, _, err := w.ListSince(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)

	data, err := w.FetchBytes(context.Background(), descriptors[0])
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFetchBytesMissingFile(t *testing.T) {
	dir := t.TempDir()
	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.FetchBytes(context.Background(), domain.DocumentDescriptor{
		FetchRef: filepath.Join(dir, "gone.txt"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubscribeSignalsOnWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := New("fs-1", dir)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Subscribe(ctx)
	require.NoError(t, err)

	writeFile(t, dir, "new.txt", "trigger")

	select {
	case _, ok := <-events:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal received")
	}
}
