package parser

import (
	"fmt"
	"strings"

	"github.com/obd2-sampler/backend/internal/models"
)

// TableParser splits a sampled dataset into header names and row fields.
type TableParser struct {
	delimiter string
	intern    *StringIntern
}

// NewTableParser creates a parser. An empty delimiter selects DefaultDelimiter.
func NewTableParser(delimiter string) *TableParser {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &TableParser{delimiter: delimiter, intern: NewStringIntern()}
}

// Parse splits every line by the delimiter. Every returned row has exactly
// len(Header) fields: short rows are padded with empty strings and long rows
// truncated, and each such row is reported in Issues.
func (p *TableParser) Parse(ds models.Dataset) models.Table {
	header := strings.Split(ds.Header, p.delimiter)
	width := len(header)

	rows := make([][]string, len(ds.Rows))
	var issues []models.ParseError
	for i, line := range ds.Rows {
		fields := strings.Split(line, p.delimiter)
		if len(fields) != width {
			issues = append(issues, models.ParseError{
				Line:    i + 1,
				Content: line,
				Reason:  fmt.Sprintf("row has %d fields, header has %d", len(fields), width),
			})
		}

		row := make([]string, width)
		for j := 0; j < width && j < len(fields); j++ {
			row[j] = p.intern.Intern(fields[j])
		}
		rows[i] = row
	}

	return models.Table{Header: header, Rows: rows, Issues: issues}
}

// Interned returns the number of distinct field strings seen so far.
func (p *TableParser) Interned() int {
	return p.intern.Len()
}
