package assistant

import (
	"encoding/json"
	"time"

	"retail-insights/internal/domain"
)

// Digest reduces a query result to the bounded form handed to the
// narrator: row count, column names, and at most maxRows sample rows as
// column-keyed records.
func Digest(res *domain.QueryResult, maxRows int) domain.ResultDigest {
	if res == nil {
		return domain.ResultDigest{}
	}
	d := domain.ResultDigest{
		Rows:    res.RowCount,
		Columns: res.Columns,
	}
	if res.RowCount == 0 {
		return d
	}
	n := maxRows
	if n > len(res.Rows) {
		n = len(res.Rows)
	}
	for _, row := range res.Rows[:n] {
		rec := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			rec[col] = normalizeValue(row[i])
		}
		d.Sample = append(d.Sample, rec)
	}
	return d
}

// normalizeValue makes driver-specific scan values JSON-friendly.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return v
	}
}

// renderJSON serializes a value for inclusion in a prompt. Encoding a
// digest or plan never fails; the error path exists for the compiler.
func renderJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
