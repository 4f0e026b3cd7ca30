package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"retail-insights/internal/domain"
)

// QueryLogRepo records compiled queries per session.
type QueryLogRepo struct {
	db *sql.DB
}

// NewQueryLogRepo creates a QueryLogRepo.
func NewQueryLogRepo(db *sql.DB) *QueryLogRepo {
	return &QueryLogRepo{db: db}
}

// Insert records one query-log entry.
func (r *QueryLogRepo) Insert(ctx context.Context, e *domain.QueryLogEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO query_log (session_id, question, plan_json, sql_text, row_count, duration_ms, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Question, e.PlanJSON, e.SQL, e.RowCount, e.DurationMs, e.Status, e.Error, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert query log: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// List returns a session's query log, most recent first.
func (r *QueryLogRepo) List(ctx context.Context, sessionID string) ([]domain.QueryLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, question, plan_json, sql_text, row_count, duration_ms, status, error, created_at
		 FROM query_log WHERE session_id = ? ORDER BY id DESC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.QueryLogEntry
	for rows.Next() {
		var e domain.QueryLogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Question, &e.PlanJSON, &e.SQL,
			&e.RowCount, &e.DurationMs, &e.Status, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan query log: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query log: %w", err)
	}
	return out, nil
}
