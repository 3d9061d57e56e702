// Package models contains domain types for the OBD2 sampler.
package models

// Dataset is a line-level view of consolidated (or sampled) CSV content:
// the raw header line followed by the raw data lines in file order.
type Dataset struct {
	Header string   `json:"header"`
	Rows   []string `json:"rows"`
}

// Len returns the number of data rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// Table is a Dataset split into fields.
type Table struct {
	Header []string     `json:"header"`
	Rows   [][]string   `json:"rows"`
	Issues []ParseError `json:"issues,omitempty"`
}

// ParseError represents a row-level problem found while splitting a table.
type ParseError struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}
