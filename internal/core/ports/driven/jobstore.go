package driven

import (
	"context"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// JobStore persists per-document outcomes across sync cycles. It is the
// idempotency ledger: a DONE outcome with a matching fingerprint means a
// document is skipped on the next cycle.
type JobStore interface {
	// GetOutcome returns the recorded outcome for a document, or
	// domain.ErrNotFound if none exists.
	GetOutcome(ctx context.Context, sourceID, documentID string) (*domain.JobOutcome, error)

	// RecordOutcome stores or replaces the outcome for a document.
	RecordOutcome(ctx context.Context, outcome *domain.JobOutcome) error

	// ListOutcomes returns all outcomes for a source, most recent first.
	ListOutcomes(ctx context.Context, sourceID string) ([]domain.JobOutcome, error)

	// GetCheckpoint returns the persisted watcher checkpoint for a
	// source, or empty string if none.
	GetCheckpoint(ctx context.Context, sourceID string) (string, error)

	// SaveCheckpoint persists the watcher checkpoint after a run.
	SaveCheckpoint(ctx context.Context, sourceID, checkpoint string) error
}
