package domain

import "time"

// Column describes one column of the loaded dataset.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Metadata describes the loaded dataset: its table name, the ordered
// column set, and the rendered schema description handed to the planner
// oracle. Columns is the authoritative value; nothing re-parses
// Description to recover the column list.
type Metadata struct {
	Table       string   `json:"table"`
	Columns     []Column `json:"columns"`
	Description string   `json:"description"`
}

// ColumnNames returns the ordered column names.
func (m *Metadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// QueryResult is a table of rows returned by the analytical store.
type QueryResult struct {
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
	RowCount int      `json:"row_count"`
}

// ResultDigest is the bounded representation of a QueryResult handed to
// the narrator oracle. Sample never exceeds the configured row cap.
type ResultDigest struct {
	Rows    int              `json:"rows"`
	Columns []string         `json:"columns,omitempty"`
	Sample  []map[string]any `json:"sample,omitempty"`
}

// Session is one dataset-bound conversation. Created when a dataset is
// loaded; chat history and the query log hang off it.
type Session struct {
	ID           string    `json:"id"`
	DatasetPath  string    `json:"dataset_path"`
	DatasetTable string    `json:"dataset_table"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatMessage is one role-tagged entry of a session transcript.
type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryLogEntry records one compiled query per turn, successful or not.
type QueryLogEntry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Question   string    `json:"question"`
	PlanJSON   string    `json:"plan_json,omitempty"`
	SQL        string    `json:"sql,omitempty"`
	RowCount   int       `json:"row_count"`
	DurationMs int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Query log statuses.
const (
	QueryStatusOK    = "ok"
	QueryStatusError = "error"
)
