// Package history records every gate execution in a local SQLite database
// so past runs can be inspected after the fact. The audit log is the
// tamper-evident record; history is the queryable one.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one gate execution.
type Record struct {
	RunID        string
	Timestamp    time.Time
	OperationID  string
	Category     string
	Decision     string
	Status       string
	Reason       string
	CheckpointID string
	DurationMS   int64
}

// Store is the SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default history database location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tweakctl-history.db")
	}
	return filepath.Join(home, ".config", "tweakctl", "history.db")
}

// Open opens (or creates) the history database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			ts_unix_ns INTEGER NOT NULL,
			operation_id TEXT NOT NULL,
			category TEXT NOT NULL,
			decision TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			checkpoint_id TEXT,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts_unix_ns);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_operation_ts ON runs(operation_id, ts_unix_ns);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history migrate: %w", err)
		}
	}
	return nil
}

// Append stores one run record.
func (s *Store) Append(ctx context.Context, r Record) error {
	if r.RunID == "" {
		return fmt.Errorf("record missing run id")
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, ts_unix_ns, operation_id, category, decision, status, reason, checkpoint_id, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Timestamp.UnixNano(), r.OperationID, r.Category,
		r.Decision, r.Status, r.Reason, r.CheckpointID, r.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("history append: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, ts_unix_ns, operation_id, category, decision, status, reason, checkpoint_id, duration_ms
		 FROM runs ORDER BY ts_unix_ns DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ns int64
		if err := rows.Scan(&r.RunID, &ns, &r.OperationID, &r.Category,
			&r.Decision, &r.Status, &r.Reason, &r.CheckpointID, &r.DurationMS); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		r.Timestamp = time.Unix(0, ns).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// ByOperation returns records for one operation, newest first.
func (s *Store) ByOperation(ctx context.Context, operationID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, ts_unix_ns, operation_id, category, decision, status, reason, checkpoint_id, duration_ms
		 FROM runs WHERE operation_id = ? ORDER BY ts_unix_ns DESC LIMIT ?`, operationID, limit)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var ns int64
		if err := rows.Scan(&r.RunID, &ns, &r.OperationID, &r.Category,
			&r.Decision, &r.Status, &r.Reason, &r.CheckpointID, &r.DurationMS); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		r.Timestamp = time.Unix(0, ns).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
