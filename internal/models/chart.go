package models

import (
	"strconv"
	"strings"
)

// SeriesRole distinguishes the primary series from the comparison overlay.
type SeriesRole string

const (
	SeriesRolePrimary SeriesRole = "primary"
	SeriesRoleOverlay SeriesRole = "overlay"
)

// ChartPoint is a pixel position on the plotting surface.
type ChartPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ChartSeries is a projected column: one point per numeric value plus a
// horizontal average line.
type ChartSeries struct {
	Role    SeriesRole    `json:"role"`
	Index   int           `json:"index"`
	Name    string        `json:"name"`
	Points  []ChartPoint  `json:"points"`
	Average [2]ChartPoint `json:"average"`
	Min     Stat          `json:"min"`
	Max     Stat          `json:"max"`
	Avg     Stat          `json:"avg"`
}

// Polyline formats the points as an SVG polyline "points" attribute.
func (s ChartSeries) Polyline() string {
	return formatPoints(s.Points)
}

// AveragePolyline formats the average line as an SVG polyline "points" attribute.
func (s ChartSeries) AveragePolyline() string {
	return formatPoints(s.Average[:])
}

func formatPoints(points []ChartPoint) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(p.X))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(p.Y))
	}
	return b.String()
}

// Chart is the response for a chart request: the primary series and an
// optional, independently scaled overlay.
type Chart struct {
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	Primary ChartSeries  `json:"primary"`
	Overlay *ChartSeries `json:"overlay,omitempty"`
}
