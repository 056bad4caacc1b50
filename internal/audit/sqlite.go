package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) the embedded database used by the default
// self-hosted deployment and enables WAL for concurrent reads.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQLite: wal: %w", err)
	}
	return db, nil
}

// SQLiteStore implements RecordStore on an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the store and runs its idempotent migration.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tool_call_records (
			id           TEXT PRIMARY KEY,
			session_id   TEXT NOT NULL,
			tool_name    TEXT NOT NULL,
			category     TEXT NOT NULL DEFAULT '',
			is_mutation  INTEGER NOT NULL DEFAULT 0,
			arguments    TEXT NOT NULL DEFAULT '{}',
			status       TEXT NOT NULL,
			started_at   TEXT NOT NULL,
			completed_at TEXT,
			duration_ms  INTEGER NOT NULL DEFAULT 0,
			output       TEXT NOT NULL DEFAULT '',
			error        TEXT NOT NULL DEFAULT '',
			error_type   TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_records_session ON tool_call_records(session_id);
		CREATE INDEX IF NOT EXISTS idx_records_tool ON tool_call_records(tool_name);
	`)
	if err != nil {
		return fmt.Errorf("audit store: migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, rec *Record) error {
	var isMutation int
	if rec.IsMutation {
		isMutation = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_call_records (
			id, session_id, tool_name, category, is_mutation,
			arguments, status, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SessionID, rec.ToolName, rec.Category, isMutation,
		rec.Arguments, string(rec.Status), rec.StartedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("audit store: create: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Complete(ctx context.Context, id string, comp Completion) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tool_call_records
		SET status = ?, completed_at = ?, duration_ms = ?,
		    output = ?, error = ?, error_type = ?
		WHERE id = ?
	`, string(comp.Status), comp.CompletedAt.Format(timeLayout), comp.DurationMs,
		comp.Output, comp.Error, comp.ErrorType, id)
	if err != nil {
		return fmt.Errorf("audit store: complete: %w", err)
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
