package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStat_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Stat `json:"a"`
		B Stat `json:"b"`
	}{A: 4.5, B: NaN()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":4.5,"b":null}`, string(data))

	var back struct {
		A Stat `json:"a"`
		B Stat `json:"b"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Stat(4.5), back.A)
	assert.True(t, math.IsNaN(back.B.Float()))
}

func TestColumnSet_Lookup(t *testing.T) {
	cs := ColumnSet{
		{Index: 0, Name: "time", NumericValues: []float64{0}},
		{Index: 1, Name: "status"},
	}

	c, ok := cs.ByName("status")
	require.True(t, ok)
	assert.Equal(t, 1, c.Index)

	_, ok = cs.ByIndex(2)
	assert.False(t, ok)

	assert.Equal(t, []Field{{Index: 0, Name: "time"}}, cs.Eligible())
}

func TestChartSeries_Polyline(t *testing.T) {
	s := ChartSeries{
		Points:  []ChartPoint{{0, 400}, {266, 0}},
		Average: [2]ChartPoint{{0, 200}, {800, 200}},
	}
	assert.Equal(t, "0,400 266,0", s.Polyline())
	assert.Equal(t, "0,200 800,200", s.AveragePolyline())
}
