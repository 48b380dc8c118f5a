package driven

import (
	"context"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// SourceWatcher enumerates candidate documents from a mailbox, drive or
// directory. Watchers are external collaborators to the orchestrator: it
// consumes only descriptors and bytes, never provider types.
type SourceWatcher interface {
	// Type returns the watcher type identifier.
	Type() string

	// SourceID returns the configured source ID.
	SourceID() string

	// ListSince enumerates documents changed since the checkpoint and
	// returns the next checkpoint to persist after a successful run.
	// An empty checkpoint means a full listing.
	ListSince(ctx context.Context, checkpoint string) ([]domain.DocumentDescriptor, string, error)

	// FetchBytes retrieves the raw bytes for a descriptor.
	FetchBytes(ctx context.Context, desc domain.DocumentDescriptor) ([]byte, error)

	// Close releases resources.
	Close() error
}
