// Package sqlgen deterministically renders validated query plans into
// bounded, read-only DuckDB SELECT statements, and guards every statement
// with a SELECT-only safety gate.
package sqlgen

// safeMetrics maps each allowed metric name to its DuckDB aggregation
// expression. Immutable process-wide configuration; metrics outside this
// map never reach generated SQL.
var safeMetrics = map[string]string{
	"gross_amount":     "SUM(COALESCE(Amount, 0))",
	"shipped_amount":   "SUM(CASE WHEN Status LIKE 'Shipped%' THEN COALESCE(Amount,0) ELSE 0 END)",
	"cancelled_amount": "SUM(CASE WHEN lower(Status) LIKE '%cancelled%' THEN COALESCE(Amount,0) ELSE 0 END)",
	"orders":           `COUNT(DISTINCT "Order ID")`,
	"units":            "SUM(COALESCE(Qty,0))",
	// cancel_rate is an unweighted average of a per-row 0/1 indicator,
	// including under GROUP BY. Kept as-is for compatibility with the
	// numbers the narrator has always reported.
	"cancel_rate": "AVG(CASE WHEN lower(Status) LIKE '%cancelled%' THEN 1.0 ELSE 0.0 END)",
}

// IsMetric reports whether name is in the metric catalog.
func IsMetric(name string) bool {
	_, ok := safeMetrics[name]
	return ok
}

// MetricExpr returns the aggregation expression for a catalog metric.
func MetricExpr(name string) (string, bool) {
	expr, ok := safeMetrics[name]
	return expr, ok
}

// MetricNames returns the catalog's metric names in a fixed order.
func MetricNames() []string {
	return []string{
		"gross_amount",
		"shipped_amount",
		"cancelled_amount",
		"orders",
		"units",
		"cancel_rate",
	}
}
