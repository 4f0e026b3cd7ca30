package domain

// Plan intent tag. The validator forces every plan to this value.
const IntentQA = "qa"

// Limit bounds applied by both the validator and the SQL builder.
const (
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 200
)

// DefaultMetric replaces an empty metric list after validation.
const DefaultMetric = "shipped_amount"

// SortKey is one ORDER BY entry of a query plan. By names either a metric
// or a dataset column; Order is "asc" or "desc".
type SortKey struct {
	By    string `json:"by"`
	Order string `json:"order"`
}

// TimeRange holds the optional date bounds of a plan. A nil bound imposes
// no filter.
type TimeRange struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

// QueryPlan is the structured intent derived from a user question.
// Untrusted as produced by the planner oracle; trusted only after
// plan.Validate has sanitized it against the dataset's real columns.
type QueryPlan struct {
	Intent  string         `json:"intent"`
	Metrics []string       `json:"metrics"`
	GroupBy []string       `json:"group_by"`
	Filters map[string]any `json:"filters"`
	Time    TimeRange      `json:"time"`
	Sort    []SortKey      `json:"sort"`
	Limit   int            `json:"limit"`
	Notes   string         `json:"notes,omitempty"`
}
