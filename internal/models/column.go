package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Stat is a summary statistic. An undefined statistic (no numeric values)
// is NaN in memory and null on the wire.
type Stat float64

// NaN returns an undefined statistic.
func NaN() Stat {
	return Stat(math.NaN())
}

// Valid reports whether the statistic is a finite number.
func (s Stat) Valid() bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns the statistic as a float64.
func (s Stat) Float() float64 {
	return float64(s)
}

// MarshalJSON encodes an undefined statistic as null.
func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(s), 'f', -1, 64)), nil
}

// UnmarshalJSON decodes null as an undefined statistic.
func (s *Stat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}

// Column is the per-column model derived from a sampled table.
type Column struct {
	Index         int       `json:"index" yaml:"index"`
	Name          string    `json:"name" yaml:"name"`
	Values        []string  `json:"values" yaml:"values"`
	NumericValues []float64 `json:"numericValues" yaml:"-"`
	Min           Stat      `json:"min" yaml:"-"`
	Max           Stat      `json:"max" yaml:"-"`
	Avg           Stat      `json:"avg" yaml:"-"`
}

// Eligible reports whether the column can be charted.
func (c Column) Eligible() bool {
	return len(c.NumericValues) > 0
}

// Field is an entry of the selectable field list.
type Field struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// ColumnSet is an ordered set of columns, one per header field.
type ColumnSet []Column

// Eligible returns the chart-selectable fields, in column order.
func (cs ColumnSet) Eligible() []Field {
	fields := make([]Field, 0, len(cs))
	for _, c := range cs {
		if c.Eligible() {
			fields = append(fields, Field{Index: c.Index, Name: c.Name})
		}
	}
	return fields
}

// ByIndex returns the column at the given header index.
func (cs ColumnSet) ByIndex(index int) (Column, bool) {
	if index < 0 || index >= len(cs) {
		return Column{}, false
	}
	return cs[index], true
}

// ByName returns the first column with the given header name.
func (cs ColumnSet) ByName(name string) (Column, bool) {
	for _, c := range cs {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
