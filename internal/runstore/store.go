// Package runstore persists shape-measure scoring runs in SQLite so past
// rankings can be retrieved and charted without recomputation.
package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunRecord is one persisted scoring run: a single actual structure ranked
// against every candidate reference geometry of its coordination number.
type RunRecord struct {
	ID          int64           `json:"id"`
	RunID       string          `json:"run_id"`
	Mode        string          `json:"mode"`
	Status      string          `json:"status"`
	Request     json.RawMessage `json:"request"`
	Results     json.RawMessage `json:"results,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Store provides persistence for scoring runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run store %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing database handle. The schema must already exist
// (via Open or MigrateUp).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS shape_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL UNIQUE,
			mode          TEXT NOT NULL,
			status        TEXT NOT NULL,
			request       TEXT NOT NULL,
			results       TEXT,
			error         TEXT,
			started_at    TEXT NOT NULL,
			completed_at  TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_shape_runs_started
			ON shape_runs(started_at);
	`)
	if err != nil {
		return fmt.Errorf("creating run store schema: %w", err)
	}
	return nil
}

// InsertRun records a run when scoring starts.
func (s *Store) InsertRun(record RunRecord) error {
	query := `
		INSERT INTO shape_runs (run_id, mode, status, request, started_at)
		VALUES (?, ?, ?, ?, ?)
	`
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(query,
			record.RunID,
			record.Mode,
			record.Status,
			string(record.Request),
			record.StartedAt.UTC().Format(time.RFC3339),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", record.RunID, err)
	}
	return nil
}

// UpdateRunResults marks a run completed or failed and attaches its results.
func (s *Store) UpdateRunResults(runID, status string, results json.RawMessage, completedAt time.Time, errMsg string) error {
	query := `
		UPDATE shape_runs
		SET status = ?, results = ?, error = ?, completed_at = ?
		WHERE run_id = ?
	`
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(query,
			status,
			nullJSON(results),
			nullStr(errMsg),
			completedAt.UTC().Format(time.RFC3339),
			runID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("updating run %s: %w", runID, err)
	}
	return nil
}

// GetRun fetches one run by its ID. Returns sql.ErrNoRows when absent.
func (s *Store) GetRun(runID string) (*RunRecord, error) {
	query := `
		SELECT id, run_id, mode, status, request, results, error, started_at, completed_at
		FROM shape_runs WHERE run_id = ?
	`
	row := s.db.QueryRow(query, runID)
	return scanRun(row)
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, run_id, mode, status, request, results, error, started_at, completed_at
		FROM shape_runs ORDER BY started_at DESC, id DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	var results, errMsg, completedAt sql.NullString
	var request, startedAt string

	err := row.Scan(&rec.ID, &rec.RunID, &rec.Mode, &rec.Status,
		&request, &results, &errMsg, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	rec.Request = json.RawMessage(request)
	rec.Results = jsonOrNil(results)
	rec.Error = errMsg.String
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		rec.StartedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339, completedAt.String); err == nil {
			rec.CompletedAt = &t
		}
	}
	return &rec, nil
}

// retryOnBusy retries fn with backoff while SQLite reports a busy database.
// Other errors fail immediately.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	delay := 10 * time.Millisecond
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return err
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// nullJSON converts an empty json.RawMessage to NULL for storage.
func nullJSON(data json.RawMessage) *string {
	if len(data) == 0 {
		return nil
	}
	s := string(data)
	return &s
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// jsonOrNil converts a sql.NullString to json.RawMessage, returning nil for NULL values.
func jsonOrNil(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
