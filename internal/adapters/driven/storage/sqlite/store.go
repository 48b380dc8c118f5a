// Package sqlite provides SQLite-backed persistence for the job outcome
// ledger, watcher checkpoints and scheduler state.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docsync-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsync-cli/internal/core/domain"
	"github.com/custodia-labs/docsync-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// persistence interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docsync/data/docsync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsync", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "docsync.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// JobStore returns a JobStore interface backed by this store.
func (s *Store) JobStore() driven.JobStore {
	return &jobStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Job Store ====================

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

// GetOutcome returns the recorded outcome for a document.
func (s *jobStore) GetOutcome(ctx context.Context, sourceID, documentID string) (*domain.JobOutcome, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_id, document_id, fingerprint, state, stage, reason, recorded_at
		FROM job_outcomes WHERE source_id = ? AND document_id = ?
	`, sourceID, documentID)

	var outcome domain.JobOutcome
	var state, stage string
	var reason sql.NullString
	var recordedAt string
	err := row.Scan(&outcome.SourceID, &outcome.DocumentID, &outcome.Fingerprint,
		&state, &stage, &reason, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job outcome: %w", err)
	}

	outcome.State = domain.JobState(state)
	outcome.Stage = domain.JobState(stage)
	if reason.Valid {
		outcome.Reason = reason.String
	}
	outcome.RecordedAt = parseTime(recordedAt)
	return &outcome, nil
}

// RecordOutcome stores or replaces the outcome for a document.
func (s *jobStore) RecordOutcome(ctx context.Context, outcome *domain.JobOutcome) error {
	if outcome == nil {
		return domain.ErrInvalidInput
	}

	recordedAt := outcome.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO job_outcomes (source_id, document_id, fingerprint, state, stage, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, document_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			state = excluded.state,
			stage = excluded.stage,
			reason = excluded.reason,
			recorded_at = excluded.recorded_at
	`, outcome.SourceID, outcome.DocumentID, outcome.Fingerprint,
		string(outcome.State), string(outcome.Stage), nullString(outcome.Reason),
		recordedAt.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("recording job outcome: %w", err)
	}
	return nil
}

// ListOutcomes returns all outcomes for a source, most recent first.
func (s *jobStore) ListOutcomes(ctx context.Context, sourceID string) ([]domain.JobOutcome, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_id, document_id, fingerprint, state, stage, reason, recorded_at
		FROM job_outcomes
		WHERE source_id = ?
		ORDER BY recorded_at DESC
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying job outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.JobOutcome //nolint:prealloc // size unknown from query
	for rows.Next() {
		var outcome domain.JobOutcome
		var state, stage string
		var reason sql.NullString
		var recordedAt string
		if err := rows.Scan(&outcome.SourceID, &outcome.DocumentID, &outcome.Fingerprint,
			&state, &stage, &reason, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning job outcome: %w", err)
		}
		outcome.State = domain.JobState(state)
		outcome.Stage = domain.JobState(stage)
		if reason.Valid {
			outcome.Reason = reason.String
		}
		outcome.RecordedAt = parseTime(recordedAt)
		outcomes = append(outcomes, outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job outcomes: %w", err)
	}

	return outcomes, nil
}

// GetCheckpoint returns the persisted watcher checkpoint for a source.
func (s *jobStore) GetCheckpoint(ctx context.Context, sourceID string) (string, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT checkpoint FROM checkpoints WHERE source_id = ?", sourceID)

	var checkpoint string
	err := row.Scan(&checkpoint)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scanning checkpoint: %w", err)
	}
	return checkpoint, nil
}

// SaveCheckpoint persists the watcher checkpoint.
func (s *jobStore) SaveCheckpoint(ctx context.Context, sourceID, checkpoint string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO checkpoints (source_id, checkpoint, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			checkpoint = excluded.checkpoint,
			updated_at = excluded.updated_at
	`, sourceID, checkpoint, time.Now().UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// nullString converts an empty string to a SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// formatNullableTime converts a zero time to a SQL NULL.
func formatNullableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// parseNullableTime parses an RFC3339 time from a nullable column.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

// parseTime parses an RFC3339 time, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// boolToInt converts a bool to the 0/1 convention used in the schema.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
