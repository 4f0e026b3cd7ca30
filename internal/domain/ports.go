package domain

import "context"

// SessionRepository persists sessions in the metadata store.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Latest(ctx context.Context) (*Session, error)
}

// HistoryRepository persists the chat transcript of a session.
type HistoryRepository interface {
	Append(ctx context.Context, m *ChatMessage) error
	// LastN returns the most recent n messages in chronological order.
	LastN(ctx context.Context, sessionID string, n int) ([]ChatMessage, error)
	List(ctx context.Context, sessionID string) ([]ChatMessage, error)
	Clear(ctx context.Context, sessionID string) error
}

// QueryLogRepository records one entry per compiled query.
type QueryLogRepository interface {
	Insert(ctx context.Context, e *QueryLogEntry) error
	List(ctx context.Context, sessionID string) ([]QueryLogEntry, error)
}
