package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail-insights/internal/domain"
	"retail-insights/internal/oracle"
	"retail-insights/internal/plan"
	"retail-insights/internal/sqlgen"
)

// Answer is the full outcome of one question turn.
type Answer struct {
	Text     string              `json:"answer"`
	Plan     *domain.QueryPlan   `json:"plan"`
	SQL      string              `json:"sql"`
	Digest   domain.ResultDigest `json:"result"`
	Warnings []string            `json:"warnings,omitempty"`
}

// Ask answers one user question against the loaded dataset. The planner
// oracle proposes a plan, the validator sanitizes it, the compiler turns
// it into bounded SQL, the store executes it, and the narrator writes the
// final answer from the result digest. Every turn is appended to the
// session transcript and recorded in the query log, failures included.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	if err := s.requireCompleter(); err != nil {
		return nil, err
	}
	defer s.lockSession(sessionID)()

	meta, err := s.analytics.Metadata()
	if err != nil {
		return nil, err
	}

	rawPlan, err := s.proposePlan(ctx, sessionID, question, meta)
	if err != nil {
		return nil, err
	}

	validated, warnings := plan.Validate(rawPlan, meta.ColumnNames())

	query := sqlgen.Build(validated, meta.ColumnNames(), meta.Table)
	if err := sqlgen.AssertSelectOnly(query); err != nil {
		s.recordQuery(ctx, sessionID, question, validated, query, 0, 0, err)
		return nil, err
	}

	start := time.Now()
	result, err := s.analytics.Execute(ctx, query)
	elapsed := time.Since(start)
	if err != nil {
		s.recordQuery(ctx, sessionID, question, validated, query, 0, elapsed, err)
		return nil, fmt.Errorf("run query: %w", err)
	}
	s.recordQuery(ctx, sessionID, question, validated, query, result.RowCount, elapsed, nil)

	digest := Digest(result, s.opts.MaxRows)

	text, err := s.narrate(ctx, question, validated, query, digest)
	if err != nil {
		return nil, err
	}

	s.appendTranscript(ctx, sessionID, question, text)

	s.logger.Info("question answered",
		"session_id", sessionID,
		"rows", result.RowCount,
		"duration_ms", elapsed.Milliseconds(),
		"warnings", len(warnings))

	return &Answer{
		Text:     text,
		Plan:     validated,
		SQL:      query,
		Digest:   digest,
		Warnings: warnings,
	}, nil
}

// proposePlan asks the planner oracle for a raw plan. A response with no
// usable JSON degrades to a nil plan so validation falls back to the
// default plan instead of failing the turn.
func (s *Service) proposePlan(ctx context.Context, sessionID, question string, meta *domain.Metadata) (any, error) {
	messages := []oracle.Message{
		{Role: oracle.RoleSystem, Content: s.prompts.SystemGuardrails},
		{Role: oracle.RoleSystem, Content: "You are the Planner agent."},
		{Role: oracle.RoleSystem, Content: s.prompts.PlannerInstructions},
		{Role: oracle.RoleSystem, Content: "SCHEMA\n" + meta.Description},
		{Role: oracle.RoleSystem, Content: "FEW_SHOT_HINTS\n" + strings.Join(s.prompts.FewShotHints, "\n")},
	}
	if recent := s.recentTranscript(ctx, sessionID); recent != "" {
		messages = append(messages, oracle.Message{Role: oracle.RoleSystem, Content: "RECENT_CHAT\n" + recent})
	}
	messages = append(messages, oracle.Message{Role: oracle.RoleUser, Content: question})

	out, err := s.completer.Complete(ctx, messages, s.opts.PlannerMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	raw, err := oracle.ExtractJSON(out)
	if err != nil {
		var perr *domain.ParseError
		if errors.As(err, &perr) {
			s.logger.Warn("planner returned no usable JSON", "session_id", sessionID, "error", err)
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

// narrate asks the narrator oracle for the final answer text.
func (s *Service) narrate(ctx context.Context, question string, p *domain.QueryPlan, query string, digest domain.ResultDigest) (string, error) {
	messages := []oracle.Message{
		{Role: oracle.RoleSystem, Content: s.prompts.SystemGuardrails},
		{Role: oracle.RoleSystem, Content: "You are the Narrator agent."},
		{Role: oracle.RoleSystem, Content: s.prompts.NarratorInstructions},
		{Role: oracle.RoleSystem, Content: "USER_QUESTION\n" + question},
		{Role: oracle.RoleSystem, Content: "PLAN_JSON\n" + renderJSON(p)},
		{Role: oracle.RoleSystem, Content: "SQL\n" + query},
		{Role: oracle.RoleSystem, Content: "RESULT_SUMMARY\n" + renderJSON(digest)},
	}
	text, err := s.completer.Complete(ctx, messages, s.opts.NarratorMaxTokens)
	if err != nil {
		return "", fmt.Errorf("narrator: %w", err)
	}
	return text, nil
}

// recentTranscript renders the planner's memory window as "role: content"
// lines. Transcript read failures degrade to no memory.
func (s *Service) recentTranscript(ctx context.Context, sessionID string) string {
	if s.history == nil {
		return ""
	}
	msgs, err := s.history.LastN(ctx, sessionID, historyWindow)
	if err != nil {
		s.logger.Warn("transcript read failed", "session_id", sessionID, "error", err)
		return ""
	}
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}

func (s *Service) appendTranscript(ctx context.Context, sessionID, question, answer string) {
	if s.history == nil {
		return
	}
	for _, m := range []*domain.ChatMessage{
		{SessionID: sessionID, Role: "user", Content: question},
		{SessionID: sessionID, Role: "assistant", Content: answer},
	} {
		if err := s.history.Append(ctx, m); err != nil {
			s.logger.Warn("transcript append failed", "session_id", sessionID, "error", err)
		}
	}
}

// recordQuery writes one query-log entry. Logging failures never fail
// the turn.
func (s *Service) recordQuery(ctx context.Context, sessionID, question string, p *domain.QueryPlan, query string, rowCount int, elapsed time.Duration, execErr error) {
	if s.queryLog == nil {
		return
	}
	entry := &domain.QueryLogEntry{
		SessionID:  sessionID,
		Question:   question,
		PlanJSON:   renderJSON(p),
		SQL:        query,
		RowCount:   rowCount,
		DurationMs: elapsed.Milliseconds(),
		Status:     domain.QueryStatusOK,
	}
	if execErr != nil {
		entry.Status = domain.QueryStatusError
		entry.Error = execErr.Error()
	}
	if err := s.queryLog.Insert(ctx, entry); err != nil {
		s.logger.Warn("query log insert failed", "session_id", sessionID, "error", err)
	}
}
