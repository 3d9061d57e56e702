package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidator_AppendsInFileOrder(t *testing.T) {
	c := NewConsolidator("")
	require.NoError(t, c.Add("f0.csv", "a,b\n1,2\n3,4"))
	require.NoError(t, c.Add("f1.csv", "a,b\n5,6"))

	ds := c.Dataset()
	assert.Equal(t, "a,b", ds.Header)
	assert.Equal(t, []string{"1,2", "3,4", "5,6"}, ds.Rows)
	assert.Equal(t, 2, c.Files())
	assert.Equal(t, 2, c.ColumnCount())
}

func TestConsolidator_RowAtOffsetComesFromSecondFile(t *testing.T) {
	c := NewConsolidator(",")
	require.NoError(t, c.Add("f0.csv", "t,rpm\n0,800\n1,810\n2,820"))
	require.NoError(t, c.Add("f1.csv", "t,rpm\n3,900\n4,910"))

	rows := c.Dataset().Rows
	n0 := 3
	assert.Equal(t, "3,900", rows[n0+0])
	assert.Equal(t, "4,910", rows[n0+1])
}

func TestConsolidator_SchemaMismatch(t *testing.T) {
	c := NewConsolidator(",")
	require.NoError(t, c.Add("f0.csv", "a,b\n1,2"))

	err := c.Add("f1.csv", "a,b,c\n3,4,5")
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.ErrorContains(t, err, "f1.csv has 3 columns, expected 2")

	assert.Equal(t, []string{"1,2"}, c.Dataset().Rows, "no rows of the mismatched file")
	assert.Equal(t, 1, c.Files())
}

func TestConsolidator_KeepsFirstHeader(t *testing.T) {
	c := NewConsolidator(",")
	require.NoError(t, c.Add("f0.csv", "speed,rpm\n1,2"))
	require.NoError(t, c.Add("f1.csv", "SPEED,RPM\n3,4"))
	assert.Equal(t, "speed,rpm", c.Dataset().Header)
}

func TestConsolidator_MissingHeader(t *testing.T) {
	c := NewConsolidator(",")
	assert.ErrorIs(t, c.Add("empty.csv", ""), ErrMissingHeader)
	assert.Equal(t, 0, c.Files())
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantHeader string
		wantRows   []string
	}{
		{"header only", "a,b", "a,b", []string{}},
		{"trailing newline", "a,b\n1,2\n", "a,b", []string{"1,2"}},
		{"crlf", "a,b\r\n1,2\r\n3,4\r\n", "a,b", []string{"1,2", "3,4"}},
		{"blank lines dropped", "a,b\n1,2\n\n  \n3,4", "a,b", []string{"1,2", "3,4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, rows := SplitLines(tt.content)
			assert.Equal(t, tt.wantHeader, header)
			assert.Equal(t, tt.wantRows, rows)
		})
	}
}
