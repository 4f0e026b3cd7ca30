package sqlgen

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"retail-insights/internal/domain"
)

// dateParseExpr is the fixed expression used for date-bound predicates.
// The dataset's Date column carries MM-DD-YY strings.
const dateParseExpr = "TRY_STRPTIME(Date, '%m-%d-%y')"

// Build renders a validated plan into a single SELECT statement over the
// given table. It assumes the plan already passed plan.Validate but
// re-filters by knownColumns and re-clamps the limit anyway, so the
// output stays safe even if a caller skips validation.
//
// Guarantees: the output starts with SELECT, has exactly one LIMIT clause,
// contains no semicolons, and references only knownColumns and metric
// aliases. Identical plans produce byte-identical SQL.
func Build(p *domain.QueryPlan, knownColumns []string, table string) string {
	known := make(map[string]bool, len(knownColumns))
	for _, c := range knownColumns {
		known[c] = true
	}

	var selectParts, groupParts []string
	for _, col := range p.GroupBy {
		if known[col] {
			selectParts = append(selectParts, quoteIdent(col))
			groupParts = append(groupParts, quoteIdent(col))
		}
	}

	metrics := p.Metrics
	if len(metrics) == 0 {
		metrics = []string{domain.DefaultMetric}
	}
	for _, m := range metrics {
		if expr, ok := MetricExpr(m); ok {
			selectParts = append(selectParts, expr+" AS "+m)
		}
	}

	// Never emit an empty projection.
	if len(selectParts) == 0 {
		expr, _ := MetricExpr(domain.DefaultMetric)
		selectParts = []string{expr + " AS " + domain.DefaultMetric}
	}

	var whereParts []string
	if p.Time.From != nil && *p.Time.From != "" {
		whereParts = append(whereParts, fmt.Sprintf("%s >= DATE %s", dateParseExpr, Literal(*p.Time.From)))
	}
	if p.Time.To != nil && *p.Time.To != "" {
		whereParts = append(whereParts, fmt.Sprintf("%s <= DATE %s", dateParseExpr, Literal(*p.Time.To)))
	}

	// Filters are a JSON object; iterate keys sorted so repeated compiles
	// of the same plan yield identical clause order.
	filterCols := make([]string, 0, len(p.Filters))
	for col := range p.Filters {
		filterCols = append(filterCols, col)
	}
	sort.Strings(filterCols)
	for _, col := range filterCols {
		if !known[col] {
			continue
		}
		switch val := p.Filters[col].(type) {
		case []any:
			lits := make([]string, len(val))
			for i, v := range val {
				lits[i] = Literal(v)
			}
			whereParts = append(whereParts, fmt.Sprintf("%s IN (%s)", quoteIdent(col), strings.Join(lits, ",")))
		default:
			whereParts = append(whereParts, fmt.Sprintf("%s = %s", quoteIdent(col), Literal(val)))
		}
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.Join(selectParts, ", ") + "\n")
	b.WriteString("FROM " + table + "\n")
	if len(whereParts) > 0 {
		b.WriteString("WHERE " + strings.Join(whereParts, " AND ") + "\n")
	}
	if len(groupParts) > 0 {
		b.WriteString("GROUP BY " + strings.Join(groupParts, ", ") + "\n")
	}

	var orderParts []string
	for _, s := range p.Sort {
		dir := strings.ToUpper(strings.TrimSpace(s.Order))
		if dir != "ASC" && dir != "DESC" {
			dir = "DESC"
		}
		switch {
		case known[s.By]:
			orderParts = append(orderParts, quoteIdent(s.By)+" "+dir)
		case IsMetric(s.By):
			// Metrics are computed aliases, emitted unquoted.
			orderParts = append(orderParts, s.By+" "+dir)
		}
	}
	if len(orderParts) > 0 {
		b.WriteString("ORDER BY " + strings.Join(orderParts, ", ") + "\n")
	}

	b.WriteString("LIMIT " + strconv.Itoa(clampLimit(p.Limit)))
	return b.String()
}

// clampLimit forces n into [MinLimit, MaxLimit], treating 0 as unset.
func clampLimit(n int) int {
	if n == 0 {
		n = domain.DefaultLimit
	}
	if n < domain.MinLimit {
		return domain.MinLimit
	}
	if n > domain.MaxLimit {
		return domain.MaxLimit
	}
	return n
}

// quoteIdent double-quotes an identifier so column names with embedded
// spaces or hyphens (e.g. "ship-state", "Order ID") stay intact.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Literal encodes a filter value as a SQL literal. Numbers are emitted
// unquoted in decimal form; everything else becomes a single-quoted
// string with internal quotes doubled. This is the only escaping layer
// between untrusted filter values and the generated statement.
func Literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		s := fmt.Sprintf("%v", v)
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
}
