package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements RecordStore on PostgreSQL. The schema is
// provisioned out of band; see deploy notes.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store on an existing connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_call_records (
			id, session_id, tool_name, category, is_mutation,
			arguments, status, started_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.SessionID, rec.ToolName, rec.Category, rec.IsMutation,
		rec.Arguments, string(rec.Status), rec.StartedAt)
	if err != nil {
		return fmt.Errorf("audit store: create: %w", err)
	}
	return nil
}

func (s *PostgresStore) Complete(ctx context.Context, id string, comp Completion) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tool_call_records
		SET status = $1, completed_at = $2, duration_ms = $3,
		    output = $4, error = $5, error_type = $6
		WHERE id = $7
	`, string(comp.Status), comp.CompletedAt, comp.DurationMs,
		comp.Output, comp.Error, comp.ErrorType, id)
	if err != nil {
		return fmt.Errorf("audit store: complete: %w", err)
	}
	return nil
}
