package domain

// StoreStatus is the lifecycle status of a remote document store.
type StoreStatus string

const (
	// StoreStatusEmpty is a freshly created store with no content.
	StoreStatusEmpty StoreStatus = "EMPTY"

	// StoreStatusSyncing means the remote service is processing content.
	StoreStatusSyncing StoreStatus = "SYNCING"

	// StoreStatusUpserting means an upsert is in flight remotely.
	StoreStatusUpserting StoreStatus = "UPSERTING"

	// StoreStatusStale means remote content is out of date.
	StoreStatusStale StoreStatus = "STALE"

	// StoreStatusSync means the store is fully indexed and queryable.
	StoreStatusSync StoreStatus = "SYNC"
)

// Ready reports whether the store can accept new uploads. A store that is
// mid-sync or stale is treated as a run-level precondition failure rather
// than silently written to.
func (s StoreStatus) Ready() bool {
	return s == StoreStatusEmpty || s == StoreStatusSync
}

// StoreRecord identifies the remote document store. A record is created or
// looked up once and its ID reused for every subsequent cycle; the
// orchestrator never deletes it except on explicit cleanup request.
type StoreRecord struct {
	// ID is the remote store identifier.
	ID string

	// Name is the store display name, used for idempotent lookup before
	// creation.
	Name string

	// Description is the optional store description.
	Description string

	// Status is the remote lifecycle status.
	Status StoreStatus
}

// StoreChunk is one indexed chunk of an uploaded document as reported by
// the chunk-page endpoint.
type StoreChunk struct {
	// ID is the remote chunk identifier.
	ID string

	// DocID is the uploaded document this chunk belongs to.
	DocID string

	// Content is the chunk text.
	Content string
}

// ChunkPage is one page of indexed chunks for an uploaded document. The
// orchestrator polls it to confirm indexing completed.
type ChunkPage struct {
	// DocID is the uploaded document identifier.
	DocID string

	// Page is the requested page number, 1-based.
	Page int

	// Chunks are the chunks on this page.
	Chunks []StoreChunk

	// TotalChunks is the total chunk count across all pages. A non-zero
	// total means the document has been indexed.
	TotalChunks int
}

// UpsertResult is the remote response to a document upsert.
type UpsertResult struct {
	// DocID is the identifier assigned to the uploaded document.
	DocID string

	// NumAdded and NumUpdated report what the upsert changed remotely.
	NumAdded   int
	NumUpdated int
}

// PredictionRequest is a question issued against synced content after a
// successful upload. Ephemeral; one per upload job.
type PredictionRequest struct {
	// Question is the prompt text, derived from the document name.
	Question string
}

// PredictionResult is the textual answer from the prediction endpoint.
// Prediction is a downstream notification, not a correctness gate: an
// API-level error payload is recorded here rather than failing the job.
type PredictionResult struct {
	// Text is the answer text, or the error payload when the endpoint
	// reported a failure.
	Text string

	// Err is true when Text carries an error payload instead of an answer.
	Err bool
}
