// Package schema renders dataset metadata into the textual description
// given to the planner oracle.
package schema

import (
	"strings"

	"retail-insights/internal/domain"
)

// datasetNotes are fixed hints appended to every schema description.
var datasetNotes = []string{
	"- Date column is MM-DD-YY.",
	"- Use Amount as sales value and Qty as units.",
	"- Status indicates shipped/cancelled/returned states.",
}

// BuildMetadata assembles dataset metadata from the introspected column
// set, including the rendered description.
func BuildMetadata(table string, columns []domain.Column) *domain.Metadata {
	return &domain.Metadata{
		Table:       table,
		Columns:     columns,
		Description: Describe(columns),
	}
}

// Describe renders the column list as a plain-text block:
//
//	Dataset columns:
//	- <name> (dtype=<type>)
//	...
//
//	Notes:
//	- ...
func Describe(columns []domain.Column) string {
	lines := make([]string, 0, len(columns)+len(datasetNotes)+3)
	lines = append(lines, "Dataset columns:")
	for _, c := range columns {
		lines = append(lines, "- "+c.Name+" (dtype="+c.Type+")")
	}
	lines = append(lines, "", "Notes:")
	lines = append(lines, datasetNotes...)
	return strings.Join(lines, "\n")
}
