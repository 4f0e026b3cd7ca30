package assistant

import (
	"context"
	"fmt"

	"retail-insights/internal/domain"
	"retail-insights/internal/oracle"
)

// Dataset-level rollups fed to the summary narrator. Each statement is
// prefix + table + suffix and goes through the same SELECT-only gate as
// question queries.
const (
	kpiSelect = `SELECT
  COUNT(*) AS rows,
  COUNT(DISTINCT "Order ID") AS orders,
  SUM(COALESCE(Qty,0)) AS units,
  SUM(COALESCE(Amount,0)) AS gross_amount,
  SUM(CASE WHEN Status LIKE 'Shipped%' THEN COALESCE(Amount,0) ELSE 0 END) AS shipped_amount,
  SUM(CASE WHEN lower(Status) LIKE '%cancelled%' THEN COALESCE(Amount,0) ELSE 0 END) AS cancelled_amount,
  AVG(CASE WHEN lower(Status) LIKE '%cancelled%' THEN 1.0 ELSE 0.0 END) AS cancel_rate,
  MIN(TRY_STRPTIME(Date, '%m-%d-%y')) AS min_date,
  MAX(TRY_STRPTIME(Date, '%m-%d-%y')) AS max_date
FROM `

	trendSelect = `SELECT
  STRFTIME(TRY_STRPTIME(Date, '%m-%d-%y'), '%Y-%m') AS month,
  COUNT(DISTINCT "Order ID") AS orders,
  SUM(COALESCE(Amount,0)) AS gross_amount,
  SUM(CASE WHEN Status LIKE 'Shipped%' THEN COALESCE(Amount,0) ELSE 0 END) AS shipped_amount,
  AVG(CASE WHEN lower(Status) LIKE '%cancelled%' THEN 1.0 ELSE 0.0 END) AS cancel_rate
FROM `
	trendSuffix = "\nGROUP BY month\nORDER BY month"

	topCategoriesSelect = `SELECT Category,
  SUM(CASE WHEN Status LIKE 'Shipped%' THEN COALESCE(Amount,0) ELSE 0 END) AS shipped_amount,
  COUNT(DISTINCT "Order ID") AS orders,
  SUM(COALESCE(Qty,0)) AS units
FROM `
	topCategoriesSuffix = "\nGROUP BY Category\nORDER BY shipped_amount DESC\nLIMIT 10"

	topStatesSelect = `SELECT "ship-state" AS ship_state,
  SUM(CASE WHEN Status LIKE 'Shipped%' THEN COALESCE(Amount,0) ELSE 0 END) AS shipped_amount,
  COUNT(DISTINCT "Order ID") AS orders
FROM `
	topStatesSuffix = "\nGROUP BY ship_state\nORDER BY shipped_amount DESC\nLIMIT 10"

	serviceLevelsSelect = `SELECT "ship-service-level" AS ship_service_level,
  SUM(CASE WHEN Status LIKE 'Shipped%' THEN COALESCE(Amount,0) ELSE 0 END) AS shipped_amount,
  COUNT(DISTINCT "Order ID") AS orders
FROM `
	serviceLevelsSuffix = "\nGROUP BY ship_service_level\nORDER BY shipped_amount DESC\nLIMIT 10"
)

// summaryQueries is the fixed set of rollups, in execution order.
var summaryQueries = []struct {
	name   string
	prefix string
	suffix string
}{
	{"kpi", kpiSelect, ""},
	{"trend", trendSelect, trendSuffix},
	{"top_categories", topCategoriesSelect, topCategoriesSuffix},
	{"top_states", topStatesSelect, topStatesSuffix},
	{"service_levels", serviceLevelsSelect, serviceLevelsSuffix},
}

// Summary is the outcome of a dataset summarization turn.
type Summary struct {
	Text   string                         `json:"answer"`
	Tables map[string]domain.ResultDigest `json:"tables"`
}

// Summarize computes the dataset rollups (KPIs, monthly trend, top
// categories, top states, service levels), then asks the narrator for an
// executive summary of all of them.
func (s *Service) Summarize(ctx context.Context, sessionID string) (*Summary, error) {
	if err := s.requireCompleter(); err != nil {
		return nil, err
	}
	defer s.lockSession(sessionID)()

	meta, err := s.analytics.Metadata()
	if err != nil {
		return nil, err
	}

	tables := make(map[string]domain.ResultDigest, len(summaryQueries))
	for _, q := range summaryQueries {
		res, err := s.analytics.Execute(ctx, q.prefix+meta.Table+q.suffix)
		if err != nil {
			return nil, fmt.Errorf("%s query: %w", q.name, err)
		}
		tables[q.name] = Digest(res, s.opts.MaxRows)
	}

	messages := []oracle.Message{
		{Role: oracle.RoleSystem, Content: s.prompts.SystemGuardrails},
		{Role: oracle.RoleSystem, Content: "You are the Summarization Narrator agent."},
		{Role: oracle.RoleSystem, Content: s.prompts.SummaryInstructions},
		{Role: oracle.RoleSystem, Content: "SUMMARY_TABLES\n" + renderJSON(tables)},
	}
	text, err := s.completer.Complete(ctx, messages, s.opts.NarratorMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("summary narrator: %w", err)
	}

	s.appendTranscript(ctx, sessionID, "Summarize this dataset.", text)
	s.logger.Info("summary generated", "session_id", sessionID)

	return &Summary{
		Text:   text,
		Tables: tables,
	}, nil
}
