package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/obd2-sampler/backend/internal/models"
)

// DefaultDelimiter is the field delimiter of the expected input files.
const DefaultDelimiter = ","

// Consolidator appends the rows of same-schema files into one dataset.
// The first accepted file fixes the header and the column count.
type Consolidator struct {
	delimiter   string
	header      string
	columnCount int
	rows        []string
	files       int
}

// NewConsolidator creates an empty consolidator. An empty delimiter selects
// DefaultDelimiter.
func NewConsolidator(delimiter string) *Consolidator {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Consolidator{delimiter: delimiter}
}

// Add consolidates one file's content. On a column count mismatch nothing
// from the file is appended.
func (c *Consolidator) Add(name, content string) error {
	header, rows := SplitLines(content)
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("%w: %s", ErrMissingHeader, name)
	}

	count := len(strings.Split(header, c.delimiter))
	if c.files == 0 {
		c.header = header
		c.columnCount = count
	} else if count != c.columnCount {
		return fmt.Errorf("%w: %s has %d columns, expected %d", ErrSchemaMismatch, name, count, c.columnCount)
	}

	c.rows = append(c.rows, rows...)
	c.files++
	return nil
}

// Files returns the number of files consolidated so far.
func (c *Consolidator) Files() int {
	return c.files
}

// ColumnCount returns the schema width, 0 before the first file.
func (c *Consolidator) ColumnCount() int {
	return c.columnCount
}

// Dataset returns the consolidated header and rows.
func (c *Consolidator) Dataset() models.Dataset {
	return models.Dataset{
		Header: c.header,
		Rows:   slices.Clip(c.rows),
	}
}

// SplitLines splits file content into its header line and data lines.
// CRLF line endings are accepted and blank data lines are dropped.
func SplitLines(content string) (string, []string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	header := lines[0]
	rows := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, line)
	}
	return header, rows
}
