package parser

import (
	"math"
	"testing"

	"github.com/obd2-sampler/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"42", 42, true},
		{"  42", 42, true},
		{"-7", -7, true},
		{"+3", 3, true},
		{"3.7abc", 3, true},
		{"12km/h", 12, true},
		{"1e5", 1, true},
		{"0x1A", 0, true},
		{"99999999999999999999", 1e20, true},
		{"abc", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{".5", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLeadingInt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBuildColumn_Stats(t *testing.T) {
	col := BuildColumn(1, "b", []string{"2", "4", "6"})

	assert.Equal(t, "b", col.Name)
	assert.Equal(t, []float64{2, 4, 6}, col.NumericValues)
	assert.Equal(t, models.Stat(2), col.Min)
	assert.Equal(t, models.Stat(6), col.Max)
	assert.Equal(t, models.Stat(4), col.Avg)
	assert.True(t, col.Eligible())
}

func TestBuildColumn_SkipsNonNumeric(t *testing.T) {
	col := BuildColumn(0, "mixed", []string{"10", "n/a", "", "3.9", "x"})

	assert.Equal(t, []float64{10, 3}, col.NumericValues)
	assert.Equal(t, models.Stat(3), col.Min)
	assert.Equal(t, models.Stat(10), col.Max)
	assert.Equal(t, models.Stat(6.5), col.Avg)
	assert.Len(t, col.Values, 5)
}

func TestBuildColumn_NoNumericValues(t *testing.T) {
	col := BuildColumn(0, "status", []string{"OK", "FAIL"})

	assert.False(t, col.Eligible())
	assert.Empty(t, col.NumericValues)
	assert.True(t, math.IsNaN(col.Min.Float()))
	assert.True(t, math.IsNaN(col.Max.Float()))
	assert.True(t, math.IsNaN(col.Avg.Float()))
}

func TestBuildColumns_EligibleFields(t *testing.T) {
	table := models.Table{
		Header: []string{"time", "status", "rpm"},
		Rows: [][]string{
			{"0", "OK", "800"},
			{"1", "OK", "900"},
		},
	}

	cols := BuildColumns(table)
	require.Len(t, cols, 3)
	assert.Equal(t, []string{"OK", "OK"}, cols[1].Values)
	assert.Equal(t, []models.Field{{Index: 0, Name: "time"}, {Index: 2, Name: "rpm"}}, cols.Eligible())
}

func TestPipelineScenario(t *testing.T) {
	c := NewConsolidator(",")
	require.NoError(t, c.Add("f0.csv", "a,b\n1,2\n3,4"))
	require.NoError(t, c.Add("f1.csv", "a,b\n5,6"))

	ds := c.Dataset()
	sampled, err := Sample(ds.Rows, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1,2", "3,4", "5,6"}, sampled)

	table := NewTableParser(",").Parse(models.Dataset{Header: ds.Header, Rows: sampled})
	cols := BuildColumns(table)

	b := cols[1]
	assert.Equal(t, []string{"2", "4", "6"}, b.Values)
	assert.Equal(t, []float64{2, 4, 6}, b.NumericValues)
	assert.Equal(t, models.Stat(2), b.Min)
	assert.Equal(t, models.Stat(6), b.Max)
	assert.Equal(t, models.Stat(4), b.Avg)
}
