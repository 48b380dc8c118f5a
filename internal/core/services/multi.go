package services

import (
	"context"
	"time"

	"github.com/custodia-labs/docsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docsync-cli/internal/logger"
)

// Ensure MultiRunner implements the interface.
var _ driving.SyncRunner = (*MultiRunner)(nil)

// MultiRunner runs one sync cycle per configured source, sequentially, and
// merges the reports. A failing source is logged and the remaining sources
// still run; the first error is returned once all sources finished.
type MultiRunner struct {
	runners []driving.SyncRunner
}

// NewMultiRunner creates a runner over the given per-source runners.
func NewMultiRunner(runners ...driving.SyncRunner) *MultiRunner {
	return &MultiRunner{runners: runners}
}

// Run executes every source's sync cycle.
func (m *MultiRunner) Run(ctx context.Context) (*driving.RunReport, error) {
	merged := &driving.RunReport{StartedAt: time.Now()}

	var firstErr error
	for _, runner := range m.runners {
		report, err := runner.Run(ctx)
		if err != nil {
			logger.Error("Source sync failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if merged.StoreID == "" {
			merged.StoreID = report.StoreID
		}
		merged.Outcomes = append(merged.Outcomes, report.Outcomes...)
		merged.Deferred += report.Deferred
	}

	merged.EndedAt = time.Now()
	return merged, firstErr
}
