package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docsync-cli/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncRunner = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates document synchronisation into the remote
// store. It owns the per-document state machine, the fingerprint skip
// check, the bounded retry policy and the index-wait polling loop.
type SyncOrchestrator struct {
	watcher   driven.SourceWatcher
	extractor driven.ExtractorRegistry
	language  driven.LanguageService
	client    driven.StoreClient
	jobs      driven.JobStore
	settings  *domain.SyncSettings

	mu      sync.Mutex
	running bool

	// storeID caches the resolved store so it is never re-created across
	// cycles unless explicitly missing.
	storeID string
}

// NewSyncOrchestrator creates a sync orchestrator. The language service is
// optional; when nil the translation stage is skipped entirely.
func NewSyncOrchestrator(
	watcher driven.SourceWatcher,
	extractor driven.ExtractorRegistry,
	language driven.LanguageService,
	client driven.StoreClient,
	jobs driven.JobStore,
	settings *domain.SyncSettings,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		watcher:   watcher,
		extractor: extractor,
		language:  language,
		client:    client,
		jobs:      jobs,
		settings:  settings,
	}
}

// Run executes a single sync cycle to completion.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Run(ctx context.Context) (*driving.RunReport, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, domain.ErrRunInProgress
	}
	o.running = true
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	// 1. Configuration gate: nothing is processed with bad settings.
	if err := o.settings.Validate(); err != nil {
		return nil, err
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if o.settings.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.settings.RunTimeout)
		defer cancel()
	}

	report := &driving.RunReport{StartedAt: time.Now()}

	// 2. Resolve the store before any workers start. Store lifecycle
	// calls are always serialised relative to per-document uploads.
	store, err := o.resolveStore(runCtx)
	if err != nil {
		return nil, err
	}
	report.StoreID = store.ID

	// 3. Discover documents since the last checkpoint.
	checkpoint, err := o.jobs.GetCheckpoint(runCtx, o.watcher.SourceID())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}

	descriptors, nextCheckpoint, err := o.watcher.ListSince(runCtx, checkpoint)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	descriptors = dedupeDescriptors(descriptors)

	logger.Info("Starting sync for source %s: %d documents discovered", o.watcher.SourceID(), len(descriptors))

	// 4. Process documents with bounded parallelism. Worker errors are
	// recorded per document and never abort the run, so the pool itself
	// never sees an error.
	var (
		outMu    sync.Mutex
		deferred int
	)
	pool, poolCtx := errgroup.WithContext(runCtx)
	pool.SetLimit(o.workers())

	for _, desc := range descriptors {
		pool.Go(func() error {
			if poolCtx.Err() != nil {
				// Run deadline fired before this document started; it
				// stays discoverable for the next tick.
				outMu.Lock()
				deferred++
				outMu.Unlock()
				logger.Warn("Deferring %s: %v", desc.Name, domain.ErrRunDeadline)
				return nil
			}

			outcome := o.processJob(poolCtx, store.ID, desc)
			outMu.Lock()
			report.Outcomes = append(report.Outcomes, outcome)
			outMu.Unlock()
			return nil
		})
	}
	_ = pool.Wait()
	report.Deferred = deferred

	// 5. Advance the checkpoint only when nothing was deferred, so
	// deferred documents are rediscovered on the next tick.
	if deferred == 0 && nextCheckpoint != "" {
		if err := o.jobs.SaveCheckpoint(context.WithoutCancel(runCtx), o.watcher.SourceID(), nextCheckpoint); err != nil {
			logger.Warn("Failed to save checkpoint: %v", err)
		}
	}

	report.EndedAt = time.Now()
	done, skipped, failed := report.Counts()
	logger.Info("Sync complete: %d done, %d skipped, %d failed, %d deferred", done, skipped, failed, deferred)
	return report, nil
}

// processJob drives one document through the state machine. All errors are
// caught at this boundary and recorded on the outcome.
//
//nolint:gocognit,gocyclo // State machine with sequential stages
func (o *SyncOrchestrator) processJob(ctx context.Context, storeID string, desc domain.DocumentDescriptor) driving.DocumentOutcome {
	// DISCOVERED: fingerprint skip check against the ledger.
	prev, err := o.jobs.GetOutcome(ctx, desc.SourceID, desc.ID)
	if err == nil && prev.State == domain.JobDone && prev.Fingerprint == desc.Fingerprint {
		logger.Debug("Skipping %s: fingerprint unchanged", desc.Name)
		return driving.DocumentOutcome{DocumentID: desc.ID, Name: desc.Name, State: domain.JobSkipped}
	}

	job := &domain.UploadJob{
		ID:         uuid.New().String(),
		Descriptor: desc,
		StoreID:    storeID,
		LoaderID:   o.settings.LoaderID,
		DocID:      desc.ID,
		State:      domain.JobDiscovered,
		StartedAt:  time.Now(),
	}

	// EXTRACTING
	job.State = domain.JobExtracting
	raw, err := o.watcher.FetchBytes(ctx, desc)
	if err != nil {
		return o.failJob(ctx, job, &domain.ExtractionError{Format: desc.Format, Reason: fmt.Sprintf("fetch bytes: %v", err)})
	}
	content, err := o.extractor.Extract(ctx, raw, desc)
	if err != nil {
		return o.failJob(ctx, job, err)
	}
	if content.Empty {
		return o.failJob(ctx, job, &domain.ExtractionError{Format: desc.Format, Reason: "no usable text after extraction"})
	}
	job.Content = content

	// TRANSLATING (optional)
	if o.settings.TranslationEnabled && o.language != nil {
		if terr := o.translateContent(ctx, content); terr != nil {
			// Failed translation blocks upload: mismatched-language
			// content is never substituted.
			job.State = domain.JobTranslating
			return o.failJob(ctx, job, terr)
		}
	}

	// From UPLOADING onwards the job must be allowed to finish even when
	// the run deadline fires; per-operation timeouts still bound every
	// call.
	uploadCtx := context.WithoutCancel(ctx)

	// UPLOADING
	job.State = domain.JobUploading
	if err := o.upsertWithConfirm(uploadCtx, job); err != nil {
		return o.failJob(uploadCtx, job, err)
	}

	// INDEX_WAIT
	job.State = domain.JobIndexWait
	if err := o.awaitIndexed(uploadCtx, job); err != nil {
		return o.failJob(uploadCtx, job, err)
	}

	// PREDICTING: downstream notification, not a correctness gate. The
	// outcome is recorded either way and the job still completes.
	job.State = domain.JobPredicting
	result, perr := o.client.CreatePrediction(uploadCtx, o.settings.ChatflowID, domain.PredictionRequest{Question: desc.Name})
	if perr != nil {
		logger.Warn("Prediction failed for %s: %v", desc.Name, perr)
		job.Prediction = &domain.PredictionResult{Text: perr.Error(), Err: true}
	} else {
		job.Prediction = result
	}

	// DONE
	job.State = domain.JobDone
	job.FinishedAt = time.Now()
	o.recordOutcome(uploadCtx, job)
	logger.Debug("Completed %s (%s)", desc.Name, job.Content.Method)
	return driving.DocumentOutcome{DocumentID: desc.ID, Name: desc.Name, State: domain.JobDone}
}

// translateContent runs detection and, when the source differs from the
// target, translation. The detected language is recorded on the content
// either way; unknown detection skips translation and keeps the original.
func (o *SyncOrchestrator) translateContent(ctx context.Context, content *domain.ExtractedContent) error {
	lang, err := o.language.Detect(ctx, content.Text)
	if err != nil {
		return &domain.TranslationError{Reason: fmt.Sprintf("detect: %v", err)}
	}
	content.Language = lang
	if lang == domain.LanguageUnknown || lang == o.settings.TargetLanguage {
		return nil
	}
	translated, err := o.language.Translate(ctx, content.Text, lang, o.settings.TargetLanguage)
	if err != nil {
		var terr *domain.TranslationError
		if errors.As(err, &terr) {
			return terr
		}
		return &domain.TranslationError{Reason: err.Error()}
	}
	content.Text = translated
	return nil
}

// upsertWithConfirm uploads the document content. The upsert endpoint is
// not idempotent, so a failed attempt is retried only after a chunk-page
// lookup confirms the prior attempt did not already land.
func (o *SyncOrchestrator) upsertWithConfirm(ctx context.Context, job *domain.UploadJob) error {
	var lastErr error
	for attempt := 0; attempt <= o.settings.RetryAttempts; attempt++ {
		if attempt > 0 {
			if landed := o.confirmUploaded(ctx, job); landed {
				logger.Debug("Upsert of %s confirmed via chunk lookup", job.Descriptor.Name)
				return nil
			}
			if err := sleepCtx(ctx, o.backoff(attempt)); err != nil {
				return lastErr
			}
		}

		job.Attempts++
		result, err := o.client.UpsertDocument(ctx, job.StoreID, job.LoaderID, job.DocID, job.Content.Text)
		if err == nil {
			if result.DocID != "" {
				job.DocID = result.DocID
			}
			return nil
		}
		lastErr = err

		var terr *domain.TransportError
		if !errors.As(err, &terr) {
			return err
		}
		logger.Warn("Upsert attempt %d for %s failed: %v", job.Attempts, job.Descriptor.Name, err)
	}
	return lastErr
}

// confirmUploaded checks whether a previous upsert attempt succeeded by
// looking up the first chunk page for the document.
func (o *SyncOrchestrator) confirmUploaded(ctx context.Context, job *domain.UploadJob) bool {
	page, err := o.client.GetChunkPage(ctx, job.StoreID, job.DocID, 1)
	if err != nil {
		return false
	}
	return page.TotalChunks > 0
}

// awaitIndexed polls the chunk-page endpoint until the uploaded document
// is indexed or the attempt budget is exhausted. Poll failures count
// against the budget; the call is idempotent so no confirmation is needed.
func (o *SyncOrchestrator) awaitIndexed(ctx context.Context, job *domain.UploadJob) error {
	attempt := 0
	for attempt < o.settings.MaxIndexAttempts {
		attempt++
		page, err := o.client.GetChunkPage(ctx, job.StoreID, job.DocID, 1)
		if err == nil && page.TotalChunks > 0 {
			return nil
		}
		if err != nil {
			logger.Debug("Index poll %d for %s: %v", attempt, job.Descriptor.Name, err)
		}
		if attempt < o.settings.MaxIndexAttempts {
			if serr := sleepCtx(ctx, o.settings.PollInterval); serr != nil {
				// Cancelled mid-wait: report the polls actually made.
				break
			}
		}
	}
	return &domain.IndexTimeoutError{Attempts: attempt}
}

// resolveStore locates or creates the remote store and verifies it can
// accept uploads. The resolved id is cached so the store is never
// re-created across cycles unless it has gone missing remotely.
func (o *SyncOrchestrator) resolveStore(ctx context.Context) (*domain.StoreRecord, error) {
	if o.storeID != "" {
		store, err := o.getStoreRetry(ctx, o.storeID)
		if err == nil {
			return o.checkReady(store)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get store: %w", err)
		}
		// Cached store vanished remotely; fall through to re-resolution.
		o.storeID = ""
	}

	if o.settings.StoreID != "" {
		store, err := o.getStoreRetry(ctx, o.settings.StoreID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ConfigurationError{Field: "store_id", Reason: "configured store does not exist"}
		}
		if err != nil {
			return nil, fmt.Errorf("get store: %w", err)
		}
		o.storeID = store.ID
		return o.checkReady(store)
	}

	stores, err := o.client.ListStores(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	for i := range stores {
		if stores[i].Name == o.settings.StoreName {
			o.storeID = stores[i].ID
			return o.checkReady(&stores[i])
		}
	}

	// CreateStore is not idempotent; only reached when no name matched.
	store, err := o.client.CreateStore(ctx, o.settings.StoreName, o.settings.StoreDescription)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	logger.Info("Created store %s (%s)", store.Name, store.ID)
	o.storeID = store.ID
	return store, nil
}

// checkReady rejects stores whose status cannot accept uploads. Treated as
// a run-level precondition failure rather than silently proceeding.
func (o *SyncOrchestrator) checkReady(store *domain.StoreRecord) (*domain.StoreRecord, error) {
	if !store.Status.Ready() {
		return nil, &domain.ConfigurationError{
			Field:  "store",
			Reason: fmt.Sprintf("store %s has status %s, expected EMPTY or SYNC", store.ID, store.Status),
		}
	}
	return store, nil
}

// getStoreRetry wraps the idempotent store lookup in the bounded retry
// policy. Not-found is final; transport failures are retried with backoff.
func (o *SyncOrchestrator) getStoreRetry(ctx context.Context, storeID string) (*domain.StoreRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= o.settings.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, o.backoff(attempt)); err != nil {
				return nil, lastErr
			}
		}
		store, err := o.client.GetStore(ctx, storeID)
		if err == nil {
			return store, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// failJob records a failed job in the ledger and the run report.
func (o *SyncOrchestrator) failJob(ctx context.Context, job *domain.UploadJob, err error) driving.DocumentOutcome {
	job.Fail(err)
	o.recordOutcome(ctx, job)
	logger.Warn("Failed %s at %s: %v", job.Descriptor.Name, job.FailedStage, err)
	return driving.DocumentOutcome{
		DocumentID: job.Descriptor.ID,
		Name:       job.Descriptor.Name,
		State:      domain.JobFailed,
		Stage:      job.FailedStage,
		Reason:     job.Reason,
	}
}

// recordOutcome persists the terminal state so fingerprint skipping
// survives restarts. Ledger write failures are logged, not fatal.
func (o *SyncOrchestrator) recordOutcome(ctx context.Context, job *domain.UploadJob) {
	outcome := &domain.JobOutcome{
		SourceID:    job.Descriptor.SourceID,
		DocumentID:  job.Descriptor.ID,
		Fingerprint: job.Descriptor.Fingerprint,
		State:       job.State,
		Stage:       job.FailedStage,
		Reason:      job.Reason,
		RecordedAt:  time.Now(),
	}
	if err := o.jobs.RecordOutcome(ctx, outcome); err != nil {
		logger.Warn("Failed to record outcome for %s: %v", job.Descriptor.Name, err)
	}
}

// backoff returns the delay before the given retry attempt, doubling per
// attempt from the configured base.
func (o *SyncOrchestrator) backoff(attempt int) time.Duration {
	d := o.settings.RetryBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

func (o *SyncOrchestrator) workers() int {
	if o.settings.Workers <= 0 {
		return 1
	}
	return o.settings.Workers
}

// dedupeDescriptors drops duplicate document ids so no two concurrent
// jobs target the same (store, document) pair.
func dedupeDescriptors(descs []domain.DocumentDescriptor) []domain.DocumentDescriptor {
	seen := make(map[string]bool, len(descs))
	out := descs[:0]
	for _, d := range descs {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out
}

// sleepCtx sleeps for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
