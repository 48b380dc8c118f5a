package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driving"
)

// mockRunner implements driving.SyncRunner. When block is set, Run holds
// until the channel is closed.
type mockRunner struct {
	runs   atomic.Int32
	block  chan struct{}
	err    error
	report *driving.RunReport
}

func (m *mockRunner) Run(_ context.Context) (*driving.RunReport, error) {
	m.runs.Add(1)
	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &driving.RunReport{}, nil
}

func schedulerConfig(interval time.Duration) domain.SchedulerConfig {
	return domain.SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]domain.TaskConfig{
			domain.TaskIDDocumentSync: {Enabled: true, Interval: interval},
		},
	}
}

func TestSchedulerInitialisesTask(t *testing.T) {
	store := memory.NewSchedulerStore()
	sched := NewScheduler(schedulerConfig(time.Hour), store, &mockRunner{})
	sched.tickInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	// Give the loop a moment to initialise and run the startup check.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sched.Stop())
	require.NoError(t, <-done)

	task, err := store.GetTask(context.Background(), domain.TaskIDDocumentSync)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, time.Hour, task.Interval)
	assert.True(t, task.Enabled)
	// NextRun is one interval out; the startup check must not run a task
	// that was just initialised.
	assert.True(t, task.NextRun.After(time.Now()))
}

func TestSchedulerRunsDueTask(t *testing.T) {
	store := memory.NewSchedulerStore()
	runner := &mockRunner{
		report: &driving.RunReport{
			Outcomes: []driving.DocumentOutcome{
				{DocumentID: "doc-1", State: domain.JobDone},
				{DocumentID: "doc-2", State: domain.JobSkipped},
			},
		},
	}

	// Seed a task that is already due.
	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Name:     "Document Sync",
		Interval: time.Hour,
		Enabled:  true,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	sched := NewScheduler(schedulerConfig(time.Hour), store, runner)
	sched.tickInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sched.Stop())
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), runner.runs.Load())

	history, err := store.GetTaskHistory(context.Background(), domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, 2, history[0].ItemsProcessed)

	// NextRun was pushed out, so the task does not fire again immediately.
	task, err := store.GetTask(context.Background(), domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.True(t, task.NextRun.After(time.Now()))
}

func TestSchedulerRecordsRunFailure(t *testing.T) {
	store := memory.NewSchedulerStore()
	runner := &mockRunner{err: errors.New("remote store unavailable")}

	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Interval: time.Hour,
		Enabled:  true,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	sched := NewScheduler(schedulerConfig(time.Hour), store, runner)
	sched.tickInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sched.Stop())
	require.NoError(t, <-done)

	history, err := store.GetTaskHistory(context.Background(), domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Contains(t, history[0].Error, "remote store unavailable")

	task, err := store.GetTask(context.Background(), domain.TaskIDDocumentSync)
	require.NoError(t, err)
	assert.Contains(t, task.LastError, "remote store unavailable")
	// A failed run still schedules the next one.
	assert.True(t, task.NextRun.After(time.Now()))
}

func TestSchedulerSkipsDisabledTask(t *testing.T) {
	store := memory.NewSchedulerStore()
	runner := &mockRunner{}

	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Interval: time.Hour,
		Enabled:  false,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	cfg := schedulerConfig(time.Hour)
	cfg.TaskConfigs[domain.TaskIDDocumentSync] = domain.TaskConfig{Enabled: false, Interval: time.Hour}

	sched := NewScheduler(cfg, store, runner)
	sched.tickInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sched.Stop())
	require.NoError(t, <-done)

	assert.Zero(t, runner.runs.Load())
}

func TestSchedulerDoesNotOverlapLongRun(t *testing.T) {
	// A run that outlasts several ticks is not started again until it
	// finishes, and only one result is recorded for it.
	store := memory.NewSchedulerStore()
	runner := &mockRunner{block: make(chan struct{})}

	require.NoError(t, store.SaveTask(context.Background(), &domain.ScheduledTask{
		ID:       domain.TaskIDDocumentSync,
		Name:     "Document Sync",
		Interval: time.Hour,
		Enabled:  true,
		NextRun:  time.Now().Add(-time.Minute),
	}))

	sched := NewScheduler(schedulerConfig(time.Hour), store, runner)
	sched.tickInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	// Several ticks pass while the first run is still in flight.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())

	close(runner.block)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sched.Stop())
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), runner.runs.Load())

	history, err := store.GetTaskHistory(context.Background(), domain.TaskIDDocumentSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	store := memory.NewSchedulerStore()
	sched := NewScheduler(schedulerConfig(time.Hour), store, &mockRunner{})
	sched.tickInterval = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, sched.Stop())
	require.NoError(t, sched.Stop())
	require.NoError(t, <-done)
}

func TestSchedulerContextCancellation(t *testing.T) {
	store := memory.NewSchedulerStore()
	sched := NewScheduler(schedulerConfig(time.Hour), store, &mockRunner{})
	sched.tickInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}
