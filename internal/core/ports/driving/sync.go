package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
)

// SyncRunner drives one complete sync cycle: discovery, extraction,
// translation, upload, index wait, prediction. One cycle runs to
// completion before the next tick may start.
type SyncRunner interface {
	// Run executes a single cycle and reports per-document outcomes.
	// Only a domain.ConfigurationError aborts the run; every other error
	// is recorded on its document's outcome.
	Run(ctx context.Context) (*RunReport, error)
}

// RunReport summarises one sync cycle. Every discovered document appears
// in exactly one outcome; nothing is dropped silently.
type RunReport struct {
	// StoreID is the remote store the run targeted.
	StoreID string

	// StartedAt and EndedAt bound the run.
	StartedAt time.Time
	EndedAt   time.Time

	// Outcomes holds one entry per discovered document.
	Outcomes []DocumentOutcome

	// Deferred counts documents pushed to the next tick by the run
	// deadline.
	Deferred int
}

// DocumentOutcome is the user-visible result for one document.
type DocumentOutcome struct {
	// DocumentID and Name identify the source document.
	DocumentID string
	Name       string

	// State is the terminal job state (DONE, SKIPPED or FAILED).
	State domain.JobState

	// Stage is the failing stage for FAILED outcomes.
	Stage domain.JobState

	// Reason is the failure detail for FAILED outcomes.
	Reason string
}

// Counts tallies outcomes by terminal state.
func (r *RunReport) Counts() (done, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.State {
		case domain.JobDone:
			done++
		case domain.JobSkipped:
			skipped++
		case domain.JobFailed:
			failed++
		}
	}
	return done, skipped, failed
}
