package domain

import "time"

// JobState is the position of an upload job in its state machine.
type JobState string

const (
	// JobDiscovered is the initial state for every descriptor returned by
	// the source watcher since the last checkpoint.
	JobDiscovered JobState = "DISCOVERED"

	// JobExtracting means text extraction is in progress.
	JobExtracting JobState = "EXTRACTING"

	// JobTranslating means the extracted text is being translated.
	JobTranslating JobState = "TRANSLATING"

	// JobUploading means the upsert call is in flight.
	JobUploading JobState = "UPLOADING"

	// JobIndexWait means the orchestrator is polling for indexing.
	JobIndexWait JobState = "INDEX_WAIT"

	// JobPredicting means the prediction call is in flight.
	JobPredicting JobState = "PREDICTING"

	// JobDone is terminal success. Reached once upload and indexing
	// succeeded, regardless of the prediction outcome.
	JobDone JobState = "DONE"

	// JobSkipped is terminal: the fingerprint matched a previously
	// completed job, so no work was needed. Not an error.
	JobSkipped JobState = "SKIPPED"

	// JobFailed is terminal failure, reachable from any non-terminal state.
	JobFailed JobState = "FAILED"
)

// Terminal reports whether the state ends the job.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobSkipped || s == JobFailed
}

// UploadJob is the per-document unit of work for one sync cycle. It is
// created in DISCOVERED when the watcher emits a descriptor and mutated as
// each stage completes. Its fingerprint is the unit of idempotency across
// cycles.
type UploadJob struct {
	// ID is a unique identifier for this job instance.
	ID string

	// Descriptor identifies the source document.
	Descriptor DocumentDescriptor

	// Content is populated after extraction (and translation, when it
	// applies); discarded with the job.
	Content *ExtractedContent

	// StoreID is the target remote store.
	StoreID string

	// LoaderID is the remote loader used for the upsert.
	LoaderID string

	// DocID is the remote document id assigned by the upsert.
	DocID string

	// State is the current state machine position.
	State JobState

	// FailedStage is the state the job was in when it failed.
	FailedStage JobState

	// Reason holds the error detail for a failed job.
	Reason string

	// Attempts counts upload attempts made for this job.
	Attempts int

	// Prediction is the recorded prediction outcome, if one was issued.
	Prediction *PredictionResult

	// StartedAt and FinishedAt bound the job's processing window.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Fail moves the job to FAILED, recording the stage it failed in.
func (j *UploadJob) Fail(err error) {
	j.FailedStage = j.State
	j.State = JobFailed
	j.Reason = err.Error()
	j.FinishedAt = time.Now()
}

// JobOutcome is the persisted record of a finished job. It is what makes
// fingerprint skipping survive process restarts: a DONE outcome with a
// matching fingerprint suppresses re-upload on later cycles.
type JobOutcome struct {
	// SourceID and DocumentID identify the source document.
	SourceID   string
	DocumentID string

	// Fingerprint is the document revision the outcome applies to.
	Fingerprint string

	// State is the terminal state (DONE, SKIPPED or FAILED).
	State JobState

	// Stage is the failing stage for FAILED outcomes.
	Stage JobState

	// Reason is the failure detail for FAILED outcomes.
	Reason string

	// RecordedAt is when the outcome was written.
	RecordedAt time.Time
}
