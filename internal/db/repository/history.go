package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"retail-insights/internal/domain"
)

// HistoryRepo persists session transcripts.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a HistoryRepo.
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append adds one message to a session transcript.
func (r *HistoryRepo) Append(ctx context.Context, m *domain.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		m.SessionID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	m.ID, _ = res.LastInsertId()
	return nil
}

// LastN returns the most recent n messages in chronological order.
func (r *HistoryRepo) LastN(ctx context.Context, sessionID string, n int) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at
		 FROM (SELECT * FROM chat_messages WHERE session_id = ? ORDER BY id DESC LIMIT ?)
		 ORDER BY id ASC`,
		sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	return scanMessages(rows)
}

// List returns the full transcript in chronological order.
func (r *HistoryRepo) List(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM chat_messages WHERE session_id = ? ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	return scanMessages(rows)
}

// Clear deletes a session's transcript.
func (r *HistoryRepo) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear chat messages: %w", err)
	}
	return nil
}

func scanMessages(rows *sql.Rows) ([]domain.ChatMessage, error) {
	defer rows.Close() //nolint:errcheck

	var out []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return out, nil
}
