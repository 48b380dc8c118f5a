package domain

import "time"

// LanguageUnknown is the detection result for text too short or ambiguous
// to classify. Translation is skipped for unknown text and the original
// content uploaded unchanged; this is policy, not a defect.
const LanguageUnknown = "und"

// SyncSettings carries the orchestrator's tunables. It is built once from
// configuration at process start and passed by reference; there is no
// ambient lookup.
type SyncSettings struct {
	// StoreID pins the remote store. When empty the store is resolved by
	// StoreName (looked up, then created).
	StoreID string

	// StoreName is the store display name used for idempotent resolution.
	StoreName string

	// StoreDescription is applied when the store has to be created.
	StoreDescription string

	// LoaderID is the remote loader used for upserts.
	LoaderID string

	// ChatflowID is the prediction endpoint target.
	ChatflowID string

	// TargetLanguage is the language documents are translated into.
	TargetLanguage string

	// TranslationEnabled toggles the translation stage entirely.
	TranslationEnabled bool

	// PollInterval is the delay between index-wait polls.
	PollInterval time.Duration

	// MaxIndexAttempts bounds index-wait polling. Exceeding it fails the
	// job with an IndexTimeoutError.
	MaxIndexAttempts int

	// RetryAttempts bounds orchestrator retries of idempotent remote
	// calls. The client itself never retries.
	RetryAttempts int

	// RetryBackoff is the base delay between retries, doubled per attempt.
	RetryBackoff time.Duration

	// Workers bounds per-document parallelism within a run. Store
	// lifecycle operations are always serialised before workers start.
	Workers int

	// RunTimeout is the run-level deadline. Documents not yet started when
	// it fires are deferred to the next tick.
	RunTimeout time.Duration

	// MinNativeTextLen is the threshold below which native PDF extraction
	// is considered empty and the OCR fallback engaged.
	MinNativeTextLen int
}

// Validate checks the settings an orchestrator run cannot proceed without.
func (s *SyncSettings) Validate() error {
	if s.StoreID == "" && s.StoreName == "" {
		return &ConfigurationError{Field: "store", Reason: "store id or name required"}
	}
	if s.LoaderID == "" {
		return &ConfigurationError{Field: "loader_id", Reason: "loader id required"}
	}
	if s.ChatflowID == "" {
		return &ConfigurationError{Field: "chatflow_id", Reason: "chatflow id required"}
	}
	if s.MaxIndexAttempts <= 0 {
		return &ConfigurationError{Field: "max_index_attempts", Reason: "must be positive"}
	}
	if s.PollInterval <= 0 {
		return &ConfigurationError{Field: "poll_interval", Reason: "must be positive"}
	}
	return nil
}

// DefaultSyncSettings returns the defaults applied before configuration
// overrides.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		TargetLanguage:     "en",
		TranslationEnabled: true,
		PollInterval:       2 * time.Second,
		MaxIndexAttempts:   30,
		RetryAttempts:      3,
		RetryBackoff:       500 * time.Millisecond,
		Workers:            4,
		RunTimeout:         10 * time.Minute,
		MinNativeTextLen:   32,
	}
}
