package assistant

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-insights/internal/domain"
	"retail-insights/internal/oracle"
	"retail-insights/internal/schema"
)

type stubAnalytics struct {
	meta     *domain.Metadata
	result   *domain.QueryResult
	executed []string
}

func (a *stubAnalytics) Metadata() (*domain.Metadata, error) {
	if a.meta == nil {
		return nil, domain.ErrUnavailable("no dataset loaded")
	}
	return a.meta, nil
}

func (a *stubAnalytics) Execute(_ context.Context, query string) (*domain.QueryResult, error) {
	a.executed = append(a.executed, query)
	if a.result != nil {
		return a.result, nil
	}
	return &domain.QueryResult{Columns: []string{"x"}, Rows: [][]any{{1}}, RowCount: 1}, nil
}

type stubCompleter struct {
	responses []string
	calls     [][]oracle.Message
}

func (c *stubCompleter) Complete(_ context.Context, messages []oracle.Message, _ int) (string, error) {
	c.calls = append(c.calls, messages)
	if len(c.responses) == 0 {
		return "", domain.ErrUnavailable("no canned response")
	}
	out := c.responses[0]
	c.responses = c.responses[1:]
	return out, nil
}

type memHistory struct {
	messages []domain.ChatMessage
}

func (h *memHistory) Append(_ context.Context, m *domain.ChatMessage) error {
	h.messages = append(h.messages, *m)
	return nil
}

func (h *memHistory) LastN(_ context.Context, _ string, n int) ([]domain.ChatMessage, error) {
	if len(h.messages) <= n {
		return h.messages, nil
	}
	return h.messages[len(h.messages)-n:], nil
}

func (h *memHistory) List(_ context.Context, _ string) ([]domain.ChatMessage, error) {
	return h.messages, nil
}

func (h *memHistory) Clear(_ context.Context, _ string) error {
	h.messages = nil
	return nil
}

type memQueryLog struct {
	entries []domain.QueryLogEntry
}

func (l *memQueryLog) Insert(_ context.Context, e *domain.QueryLogEntry) error {
	l.entries = append(l.entries, *e)
	return nil
}

func (l *memQueryLog) List(_ context.Context, _ string) ([]domain.QueryLogEntry, error) {
	return l.entries, nil
}

func testMeta() *domain.Metadata {
	return schema.BuildMetadata("sales", []domain.Column{
		{Name: "Order ID", Type: "VARCHAR"},
		{Name: "Date", Type: "VARCHAR"},
		{Name: "Status", Type: "VARCHAR"},
		{Name: "Category", Type: "VARCHAR"},
		{Name: "ship-state", Type: "VARCHAR"},
		{Name: "Qty", Type: "DOUBLE"},
		{Name: "Amount", Type: "DOUBLE"},
	})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(analytics Analytics, completer oracle.Completer, history *memHistory, queryLog *memQueryLog) *Service {
	return NewService(analytics, completer, DefaultPrompts(), history, queryLog, testLogger(), Options{})
}

func TestAskPipeline(t *testing.T) {
	analytics := &stubAnalytics{
		meta: testMeta(),
		result: &domain.QueryResult{
			Columns:  []string{"Category", "shipped_amount"},
			Rows:     [][]any{{"Set", 647.62}, {"kurta", 329.0}},
			RowCount: 2,
		},
	}
	completer := &stubCompleter{responses: []string{
		`{"intent":"qa","metrics":["shipped_amount"],"group_by":["Category"],"sort":[{"by":"shipped_amount","order":"desc"}],"limit":5}`,
		"Set leads shipped revenue.",
	}}
	history := &memHistory{}
	queryLog := &memQueryLog{}
	svc := newTestService(analytics, completer, history, queryLog)

	ans, err := svc.Ask(context.Background(), "s1", "Top categories by shipped revenue?")
	require.NoError(t, err)

	assert.Equal(t, "Set leads shipped revenue.", ans.Text)
	assert.Equal(t, []string{"shipped_amount"}, ans.Plan.Metrics)
	assert.Contains(t, ans.SQL, `GROUP BY "Category"`)
	assert.True(t, strings.HasSuffix(ans.SQL, "LIMIT 5"))
	assert.Empty(t, ans.Warnings)
	assert.Equal(t, 2, ans.Digest.Rows)

	// The executed statement is exactly the compiled one.
	require.Len(t, analytics.executed, 1)
	assert.Equal(t, ans.SQL, analytics.executed[0])

	// Both turns land in the transcript.
	require.Len(t, history.messages, 2)
	assert.Equal(t, "user", history.messages[0].Role)
	assert.Equal(t, "assistant", history.messages[1].Role)

	// The query log has one successful entry.
	require.Len(t, queryLog.entries, 1)
	assert.Equal(t, domain.QueryStatusOK, queryLog.entries[0].Status)
	assert.Equal(t, 2, queryLog.entries[0].RowCount)
}

func TestAskPlannerMessages(t *testing.T) {
	analytics := &stubAnalytics{meta: testMeta()}
	completer := &stubCompleter{responses: []string{`{"limit": 10}`, "answer"}}
	svc := newTestService(analytics, completer, &memHistory{}, &memQueryLog{})

	_, err := svc.Ask(context.Background(), "s1", "How many orders?")
	require.NoError(t, err)

	require.Len(t, completer.calls, 2)
	planner := completer.calls[0]
	assert.Equal(t, oracle.RoleSystem, planner[0].Role)
	assert.Contains(t, planner[0].Content, "Retail Insights Assistant")
	assert.Equal(t, "You are the Planner agent.", planner[1].Content)
	assert.Contains(t, planner[3].Content, "SCHEMA\nDataset columns:")
	assert.Contains(t, planner[4].Content, "FEW_SHOT_HINTS\n")
	assert.Equal(t, oracle.RoleUser, planner[len(planner)-1].Role)
	assert.Equal(t, "How many orders?", planner[len(planner)-1].Content)

	narrator := completer.calls[1]
	assert.Equal(t, "You are the Narrator agent.", narrator[1].Content)
	assert.Contains(t, narrator[3].Content, "USER_QUESTION\nHow many orders?")
	assert.Contains(t, narrator[5].Content, "SQL\nSELECT")
	assert.Contains(t, narrator[6].Content, "RESULT_SUMMARY\n")
}

func TestAskIncludesRecentChat(t *testing.T) {
	analytics := &stubAnalytics{meta: testMeta()}
	completer := &stubCompleter{responses: []string{`{"limit": 10}`, "answer"}}
	history := &memHistory{}
	history.messages = []domain.ChatMessage{
		{SessionID: "s1", Role: "user", Content: "earlier question"},
		{SessionID: "s1", Role: "assistant", Content: "earlier answer"},
	}
	svc := newTestService(analytics, completer, history, &memQueryLog{})

	_, err := svc.Ask(context.Background(), "s1", "follow-up")
	require.NoError(t, err)

	var found bool
	for _, m := range completer.calls[0] {
		if strings.HasPrefix(m.Content, "RECENT_CHAT\n") {
			found = true
			assert.Contains(t, m.Content, "user: earlier question")
			assert.Contains(t, m.Content, "assistant: earlier answer")
		}
	}
	assert.True(t, found)
}

func TestAskRecoversFromGarbagePlan(t *testing.T) {
	analytics := &stubAnalytics{meta: testMeta()}
	completer := &stubCompleter{responses: []string{"I cannot produce a plan, sorry.", "fallback answer"}}
	svc := newTestService(analytics, completer, &memHistory{}, &memQueryLog{})

	ans, err := svc.Ask(context.Background(), "s1", "anything")
	require.NoError(t, err)

	assert.Equal(t, "fallback answer", ans.Text)
	assert.Equal(t, []string{domain.DefaultMetric}, ans.Plan.Metrics)
	require.Len(t, ans.Warnings, 1)
	assert.Equal(t, "Planner did not return JSON; using default plan.", ans.Warnings[0])
}

func TestAskWithoutCompleter(t *testing.T) {
	svc := newTestService(&stubAnalytics{meta: testMeta()}, nil, &memHistory{}, &memQueryLog{})

	_, err := svc.Ask(context.Background(), "s1", "q")
	var uerr *domain.UnavailableError
	assert.ErrorAs(t, err, &uerr)
}

func TestAskWithoutDataset(t *testing.T) {
	completer := &stubCompleter{responses: []string{`{}`, "x"}}
	svc := newTestService(&stubAnalytics{}, completer, &memHistory{}, &memQueryLog{})

	_, err := svc.Ask(context.Background(), "s1", "q")
	var uerr *domain.UnavailableError
	assert.ErrorAs(t, err, &uerr)
	assert.Empty(t, completer.calls)
}

func TestSummarize(t *testing.T) {
	analytics := &stubAnalytics{meta: testMeta()}
	completer := &stubCompleter{responses: []string{"Executive summary text."}}
	history := &memHistory{}
	svc := newTestService(analytics, completer, history, &memQueryLog{})

	sum, err := svc.Summarize(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, "Executive summary text.", sum.Text)
	require.Len(t, analytics.executed, 5)
	assert.Contains(t, analytics.executed[0], "COUNT(*) AS rows")
	assert.Contains(t, analytics.executed[1], "GROUP BY month")
	assert.Contains(t, analytics.executed[2], "GROUP BY Category")
	assert.Contains(t, analytics.executed[3], `"ship-state" AS ship_state`)
	assert.Contains(t, analytics.executed[4], `"ship-service-level" AS ship_service_level`)

	for _, name := range []string{"kpi", "trend", "top_categories", "top_states", "service_levels"} {
		assert.Contains(t, sum.Tables, name)
	}

	require.Len(t, completer.calls, 1)
	msgs := completer.calls[0]
	assert.Equal(t, "You are the Summarization Narrator agent.", msgs[1].Content)
	assert.Contains(t, msgs[3].Content, "SUMMARY_TABLES\n")

	require.Len(t, history.messages, 2)
	assert.Equal(t, "Summarize this dataset.", history.messages[0].Content)
}
