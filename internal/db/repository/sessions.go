// Package repository implements the metastore persistence interfaces on
// plain SQL against SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"retail-insights/internal/domain"
)

// SessionRepo persists sessions in the metastore.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a session, assigning an ID and timestamp if unset.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, dataset_path, dataset_table, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.DatasetPath, s.DatasetTable, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID returns the session with the given ID.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, dataset_path, dataset_table, created_at FROM sessions WHERE id = ?`, id)
	return scanSession(row, id)
}

// Latest returns the most recently created session.
func (r *SessionRepo) Latest(ctx context.Context) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, dataset_path, dataset_table, created_at FROM sessions ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanSession(row, "")
}

func scanSession(row *sql.Row, id string) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.DatasetPath, &s.DatasetTable, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		if id == "" {
			return nil, domain.ErrNotFound("no sessions exist")
		}
		return nil, domain.ErrNotFound("session %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}
