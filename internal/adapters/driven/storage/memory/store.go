// Package memory provides in-memory implementations of the persistence
// ports. Used in tests and as a fallback when no data directory is
// available; state does not survive the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.JobStore       = (*JobStore)(nil)
	_ driven.SchedulerStore = (*SchedulerStore)(nil)
)

// JobStore is an in-memory job outcome ledger.
type JobStore struct {
	mu          sync.RWMutex
	outcomes    map[string]domain.JobOutcome // key: sourceID + "\x00" + documentID
	checkpoints map[string]string
}

// NewJobStore creates an empty in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		outcomes:    make(map[string]domain.JobOutcome),
		checkpoints: make(map[string]string),
	}
}

func outcomeKey(sourceID, documentID string) string {
	return sourceID + "\x00" + documentID
}

// GetOutcome returns the recorded outcome for a document.
func (s *JobStore) GetOutcome(_ context.Context, sourceID, documentID string) (*domain.JobOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcome, ok := s.outcomes[outcomeKey(sourceID, documentID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := outcome
	return &copied, nil
}

// RecordOutcome stores or replaces the outcome for a document.
func (s *JobStore) RecordOutcome(_ context.Context, outcome *domain.JobOutcome) error {
	if outcome == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcomes[outcomeKey(outcome.SourceID, outcome.DocumentID)] = *outcome
	return nil
}

// ListOutcomes returns all outcomes for a source, most recent first.
func (s *JobStore) ListOutcomes(_ context.Context, sourceID string) ([]domain.JobOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.JobOutcome
	for _, o := range s.outcomes {
		if o.SourceID == sourceID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

// GetCheckpoint returns the persisted watcher checkpoint for a source.
func (s *JobStore) GetCheckpoint(_ context.Context, sourceID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkpoints[sourceID], nil
}

// SaveCheckpoint persists the watcher checkpoint.
func (s *JobStore) SaveCheckpoint(_ context.Context, sourceID, checkpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[sourceID] = checkpoint
	return nil
}

// SchedulerStore is an in-memory scheduler state store.
type SchedulerStore struct {
	mu      sync.RWMutex
	tasks   map[string]domain.ScheduledTask
	results []domain.TaskResult
}

// NewSchedulerStore creates an empty in-memory scheduler store.
func NewSchedulerStore() *SchedulerStore {
	return &SchedulerStore{
		tasks: make(map[string]domain.ScheduledTask),
	}
}

// GetTask retrieves a scheduled task by ID.
func (s *SchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, nil
	}
	copied := task
	return &copied, nil
}

// ListTasks returns all scheduled tasks.
func (s *SchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveTask persists a task's state.
func (s *SchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return nil
}

// DeleteTask removes a task from storage.
func (s *SchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
	return nil
}

// RecordResult logs a task execution result.
func (s *SchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *result)
	return nil
}

// GetTaskHistory returns recent results for a task, most recent first.
func (s *SchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TaskResult
	for i := len(s.results) - 1; i >= 0; i-- {
		if s.results[i].TaskID == taskID {
			out = append(out, s.results[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// PruneHistory keeps the most recent 'keep' results per task.
func (s *SchedulerStore) PruneHistory(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	var kept []domain.TaskResult
	for i := len(s.results) - 1; i >= 0; i-- {
		r := s.results[i]
		if counts[r.TaskID] < keep {
			counts[r.TaskID]++
			kept = append(kept, r)
		}
	}
	// Restore chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	s.results = kept
	return nil
}
