// Package plan sanitizes raw planner output into a trusted query plan.
// Validation never fails: anything unusable degrades to a safe default
// and produces a warning instead of an error.
package plan

import (
	"strconv"
	"strings"

	"retail-insights/internal/domain"
	"retail-insights/internal/sqlgen"
)

// Warning texts surfaced to the caller alongside the validated plan.
const (
	WarnNotJSON = "Planner did not return JSON; using default plan."
	WarnYoY     = "YoY requires multiple years; this dataset may not support true YoY."
)

// Validate turns a raw decoded JSON value into a trusted plan. Unknown
// columns and metrics are dropped silently; an empty metric list falls
// back to the default metric; the limit is clamped. The returned plan is
// safe to hand to sqlgen.Build unmodified.
func Validate(raw any, knownColumns []string) (*domain.QueryPlan, []string) {
	var warnings []string

	obj, ok := raw.(map[string]any)
	if !ok {
		warnings = append(warnings, WarnNotJSON)
		obj = map[string]any{}
	}

	known := make(map[string]bool, len(knownColumns))
	for _, c := range knownColumns {
		known[c] = true
	}

	p := &domain.QueryPlan{Intent: domain.IntentQA}

	for _, col := range stringList(obj["group_by"]) {
		if known[col] {
			p.GroupBy = append(p.GroupBy, col)
		}
	}

	for _, m := range stringList(obj["metrics"]) {
		if sqlgen.IsMetric(m) {
			p.Metrics = append(p.Metrics, m)
		}
	}
	if len(p.Metrics) == 0 {
		p.Metrics = []string{domain.DefaultMetric}
	}

	if filters, ok := obj["filters"].(map[string]any); ok {
		for col, val := range filters {
			if known[col] {
				if p.Filters == nil {
					p.Filters = map[string]any{}
				}
				p.Filters[col] = val
			}
		}
	}

	if tr, ok := obj["time"].(map[string]any); ok {
		if from, ok := tr["from"].(string); ok && from != "" {
			p.Time.From = &from
		}
		if to, ok := tr["to"].(string); ok && to != "" {
			p.Time.To = &to
		}
	}

	if sorts, ok := obj["sort"].([]any); ok {
		for _, s := range sorts {
			entry, ok := s.(map[string]any)
			if !ok {
				continue
			}
			by, _ := entry["by"].(string)
			if by == "" {
				continue
			}
			if !known[by] && !sqlgen.IsMetric(by) {
				continue
			}
			order, _ := entry["order"].(string)
			order = strings.ToLower(strings.TrimSpace(order))
			if order != "asc" && order != "desc" {
				order = "desc"
			}
			p.Sort = append(p.Sort, domain.SortKey{By: by, Order: order})
		}
	}

	p.Limit = intOrDefault(obj["limit"], domain.DefaultLimit)
	if p.Limit < domain.MinLimit {
		p.Limit = domain.MinLimit
	}
	if p.Limit > domain.MaxLimit {
		p.Limit = domain.MaxLimit
	}

	if notes, ok := obj["notes"].(string); ok {
		p.Notes = notes
		lower := strings.ToLower(notes)
		if strings.Contains(lower, "yoy") || strings.Contains(lower, "year over year") {
			warnings = append(warnings, WarnYoY)
		}
	}

	return p, warnings
}

// stringList extracts the string elements of a decoded JSON array,
// skipping everything else.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// intOrDefault coerces a decoded JSON value to int. Numeric strings are
// parsed, since planners sometimes quote the limit. A zero or unparseable
// value falls back to def.
func intOrDefault(v any, def int) int {
	switch n := v.(type) {
	case float64:
		if n == 0 {
			return def
		}
		return int(n)
	case int:
		if n == 0 {
			return def
		}
		return n
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return int(f)
		}
		return def
	default:
		return def
	}
}
