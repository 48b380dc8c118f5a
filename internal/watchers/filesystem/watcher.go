// Package filesystem watches a local directory tree for documents. The
// checkpoint is the newest modification time seen; fingerprints are a
// sha256 of file content so a touch without a change never re-uploads.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsync-cli/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.SourceWatcher = (*Watcher)(nil)

// checkpointLayout is the wire format for filesystem checkpoints.
const checkpointLayout = time.RFC3339Nano

// Watcher enumerates documents under a directory tree.
type Watcher struct {
	sourceID string
	root     string

	notifier *fsnotify.Watcher
}

// New creates a filesystem watcher rooted at dir.
func New(sourceID, dir string) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, &domain.ConfigurationError{Field: "path", Reason: fmt.Sprintf("%s is not a directory", dir)}
	}
	return &Watcher{sourceID: sourceID, root: dir}, nil
}

// Type returns the watcher type.
func (w *Watcher) Type() string { return "filesystem" }

// SourceID returns the source identifier.
func (w *Watcher) SourceID() string { return w.sourceID }

// ListSince walks the tree and returns descriptors for documents modified
// after the checkpoint. The returned checkpoint is the newest modification
// time seen across the whole tree, changed or not.
func (w *Watcher) ListSince(ctx context.Context, checkpoint string) ([]domain.DocumentDescriptor, string, error) {
	var since time.Time
	if checkpoint != "" {
		parsed, err := time.Parse(checkpointLayout, checkpoint)
		if err != nil {
			// A corrupt checkpoint falls back to a full rescan; the
			// fingerprint ledger keeps that cheap.
			logger.Warn("Invalid checkpoint %q for %s, rescanning", checkpoint, w.sourceID)
		} else {
			since = parsed
		}
	}

	var descriptors []domain.DocumentDescriptor
	newest := since

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Hidden directories are never scanned.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		format, ok := domain.FormatForFilename(d.Name())
		if !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		if !info.ModTime().After(since) {
			return nil
		}

		fingerprint, err := fingerprintFile(path)
		if err != nil {
			logger.Warn("Failed to fingerprint %s: %v", path, err)
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}

		descriptors = append(descriptors, domain.DocumentDescriptor{
			SourceID:    w.sourceID,
			ID:          rel,
			Name:        d.Name(),
			Format:      format,
			Fingerprint: fingerprint,
			FetchRef:    path,
		})
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("walk %s: %w", w.root, err)
	}

	next := checkpoint
	if !newest.IsZero() {
		next = newest.Format(checkpointLayout)
	}
	return descriptors, next, nil
}

// FetchBytes reads the document content from disk.
func (w *Watcher) FetchBytes(_ context.Context, desc domain.DocumentDescriptor) ([]byte, error) {
	data, err := os.ReadFile(desc.FetchRef)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", desc.FetchRef, err)
	}
	return data, nil
}

// Subscribe returns a channel that receives a signal whenever a watched
// file changes, for event-driven syncs in daemon mode. The channel closes
// when the context is cancelled.
func (w *Watcher) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create notifier: %w", err)
	}
	w.notifier = notifier

	// Watch the root and every subdirectory; fsnotify is not recursive.
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return notifier.Add(path)
		}
		return nil
	})
	if err != nil {
		notifier.Close()
		return nil, fmt.Errorf("watch tree: %w", err)
	}

	events := make(chan struct{}, 1)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-notifier.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				// New directories join the watch set.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := notifier.Add(event.Name); err != nil {
						logger.Warn("Failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
				select {
				case events <- struct{}{}:
				default: // A pending signal already covers this change.
				}
			case err, ok := <-notifier.Errors:
				if !ok {
					return
				}
				logger.Warn("Filesystem notifier error: %v", err)
			}
		}
	}()
	return events, nil
}

// Close releases the notifier, if one was started.
func (w *Watcher) Close() error {
	if w.notifier != nil {
		return w.notifier.Close()
	}
	return nil
}

// fingerprintFile hashes file content.
func fingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
