// Package assistant orchestrates the question-answering pipeline: plan,
// validate, compile, execute, digest, narrate.
package assistant

import (
	"context"
	"log/slog"
	"sync"

	"retail-insights/internal/domain"
	"retail-insights/internal/oracle"
)

// historyWindow is how many recent transcript messages the planner sees.
const historyWindow = 10

// Analytics is the slice of the analytical store the pipeline needs.
type Analytics interface {
	Metadata() (*domain.Metadata, error)
	Execute(ctx context.Context, query string) (*domain.QueryResult, error)
}

// Options bundles the tunables of a Service.
type Options struct {
	MaxRows           int
	PlannerMaxTokens  int
	NarratorMaxTokens int
}

// Service runs the assistant pipelines against a loaded dataset. Turns
// within one session run strictly one at a time; sessions do not block
// each other.
type Service struct {
	analytics Analytics
	completer oracle.Completer
	prompts   *Prompts
	history   domain.HistoryRepository
	queryLog  domain.QueryLogRepository
	logger    *slog.Logger
	opts      Options

	turnMu sync.Map // map[string]*sync.Mutex, keyed by session ID
}

// NewService wires the pipeline. completer may be nil when no oracle is
// configured; Answer and Summarize then fail with an UnavailableError.
func NewService(
	analytics Analytics,
	completer oracle.Completer,
	prompts *Prompts,
	history domain.HistoryRepository,
	queryLog domain.QueryLogRepository,
	logger *slog.Logger,
	opts Options,
) *Service {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 8
	}
	if opts.PlannerMaxTokens <= 0 {
		opts.PlannerMaxTokens = 800
	}
	if opts.NarratorMaxTokens <= 0 {
		opts.NarratorMaxTokens = 700
	}
	return &Service{
		analytics: analytics,
		completer: completer,
		prompts:   prompts,
		history:   history,
		queryLog:  queryLog,
		logger:    logger,
		opts:      opts,
	}
}

func (s *Service) requireCompleter() error {
	if s.completer == nil {
		return domain.ErrUnavailable("oracle not configured: set OPENAI_API_KEY")
	}
	return nil
}

// lockSession serializes turns within a session. The returned func
// releases the lock.
func (s *Service) lockSession(sessionID string) func() {
	v, _ := s.turnMu.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
