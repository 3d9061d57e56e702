package parser

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/obd2-sampler/backend/internal/models"
)

// ParseLeadingInt parses the leading base-10 integer of s the way a lenient
// integer parse does: leading whitespace is skipped, an optional sign is
// accepted, and parsing stops at the first non-digit. "3.7abc" yields 3,
// "abc" and "" yield ok == false.
func ParseLeadingInt(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	// ParseFloat keeps digit runs beyond int64 range finite.
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// BuildColumns derives one column model per header field of the table.
func BuildColumns(table models.Table) models.ColumnSet {
	columns := make(models.ColumnSet, len(table.Header))
	for i, name := range table.Header {
		values := make([]string, len(table.Rows))
		for r, row := range table.Rows {
			if i < len(row) {
				values[r] = row[i]
			}
		}
		columns[i] = BuildColumn(i, name, values)
	}
	return columns
}

// BuildColumn computes the numeric subset and summary statistics of one
// column. Statistics of a column without numeric values are NaN.
func BuildColumn(index int, name string, values []string) models.Column {
	col := models.Column{
		Index:  index,
		Name:   name,
		Values: values,
		Min:    models.NaN(),
		Max:    models.NaN(),
		Avg:    models.NaN(),
	}

	numeric := make([]float64, 0, len(values))
	for _, v := range values {
		if n, ok := ParseLeadingInt(v); ok {
			numeric = append(numeric, n)
		}
	}
	col.NumericValues = numeric
	if len(numeric) == 0 {
		return col
	}

	minV, maxV, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, n := range numeric {
		minV = math.Min(minV, n)
		maxV = math.Max(maxV, n)
		sum += n
	}
	col.Min = models.Stat(minV)
	col.Max = models.Stat(maxV)
	col.Avg = models.Stat(sum / float64(len(numeric)))
	return col
}
