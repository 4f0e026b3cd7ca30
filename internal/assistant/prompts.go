package assistant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default prompt texts. Every text can be overridden from a YAML file via
// LoadPrompts; missing keys keep their defaults.
const (
	defaultSystemGuardrails = `You are a helpful Retail Insights Assistant.

IMPORTANT RULES:
- Use ONLY the provided dataset schema/columns.
- Never invent columns or values.
- All numeric computation must come from SQL results.
- Only output valid JSON when asked for JSON.
`

	defaultPlannerInstructions = `Convert the user's question into a JSON query plan.

Return ONLY valid JSON (no markdown). Schema:
{
  "intent": "qa",
  "metrics": ["gross_amount"|"shipped_amount"|"cancelled_amount"|"orders"|"units"|"cancel_rate"],
  "group_by": [<column names>],
  "filters": {<column>: <value or list>},
  "time": {"from": "YYYY-MM-DD"|null, "to": "YYYY-MM-DD"|null},
  "sort": [{"by": <metric or column>, "order": "asc"|"desc"}],
  "limit": <int>,
  "notes": "short reasoning"
}

Rules:
- Interpret sales/revenue as shipped_amount by default.
- If YoY requested, mention it requires multiple years.
- Prefer grouping by Category, ship-state, ship-city, Fulfilment, ship-service-level.
- Always include a limit (default 10).
`

	defaultNarratorInstructions = `Write a concise business answer using ONLY the provided SQL result summary.
- 1-2 sentence direct answer
- 2-4 bullet insights
- Mention limitations briefly if needed
`

	defaultSummaryInstructions = `Write an executive summary based on KPI/trend summaries.
- 1 short paragraph
- 4-6 bullets
- mention date range
`
)

var defaultFewShotHints = []string{
	`{"q":"Top categories by shipped revenue","hint":"metrics=[shipped_amount], group_by=[Category], sort shipped_amount desc"}`,
	`{"q":"Cancellation rate by state","hint":"metrics=[cancel_rate], group_by=[ship-state], sort cancel_rate desc"}`,
}

// Prompts holds the texts driving the planner and narrator turns.
type Prompts struct {
	SystemGuardrails     string   `yaml:"system_guardrails"`
	PlannerInstructions  string   `yaml:"planner_instructions"`
	NarratorInstructions string   `yaml:"narrator_instructions"`
	SummaryInstructions  string   `yaml:"summary_instructions"`
	FewShotHints         []string `yaml:"few_shot_hints"`
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() *Prompts {
	return &Prompts{
		SystemGuardrails:     defaultSystemGuardrails,
		PlannerInstructions:  defaultPlannerInstructions,
		NarratorInstructions: defaultNarratorInstructions,
		SummaryInstructions:  defaultSummaryInstructions,
		FewShotHints:         defaultFewShotHints,
	}
}

// LoadPrompts reads prompt overrides from a YAML file on top of the
// defaults. An empty path returns the defaults unchanged.
func LoadPrompts(path string) (*Prompts, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var override Prompts
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	if override.SystemGuardrails != "" {
		p.SystemGuardrails = override.SystemGuardrails
	}
	if override.PlannerInstructions != "" {
		p.PlannerInstructions = override.PlannerInstructions
	}
	if override.NarratorInstructions != "" {
		p.NarratorInstructions = override.NarratorInstructions
	}
	if override.SummaryInstructions != "" {
		p.SummaryInstructions = override.SummaryInstructions
	}
	if len(override.FewShotHints) > 0 {
		p.FewShotHints = override.FewShotHints
	}
	return p, nil
}
