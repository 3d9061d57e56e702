// Package chart projects column models onto a fixed-size plotting surface
// and renders the projected series.
package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/obd2-sampler/backend/internal/models"
)

// Default canvas dimensions in logical units.
const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

// ErrNotEligible is returned for columns without numeric values.
var ErrNotEligible = errors.New("column has no numeric values")

// Canvas is the logical size of the plotting surface. Y grows downwards.
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Projector maps column values to pixel coordinates.
type Projector struct {
	canvas Canvas
}

// NewProjector creates a projector; zero dimensions select the defaults.
func NewProjector(canvas Canvas) *Projector {
	if canvas.Width <= 0 {
		canvas.Width = DefaultWidth
	}
	if canvas.Height <= 0 {
		canvas.Height = DefaultHeight
	}
	return &Projector{canvas: canvas}
}

// Canvas returns the plotting surface size.
func (p *Projector) Canvas() Canvas {
	return p.canvas
}

// Project maps every numeric value of the column to a point. X is the
// position within the numeric values, not the original row index, so rows
// skipped as non-numeric do not leave gaps. Y is scaled against the
// column's own max.
func (p *Projector) Project(col models.Column, role models.SeriesRole) (models.ChartSeries, error) {
	if !col.Eligible() {
		return models.ChartSeries{}, fmt.Errorf("%w: %s", ErrNotEligible, col.Name)
	}

	w := float64(p.canvas.Width)
	n := float64(len(col.NumericValues))
	maxV := col.Max.Float()

	points := make([]models.ChartPoint, len(col.NumericValues))
	for i, v := range col.NumericValues {
		points[i] = models.ChartPoint{
			X: int(math.Floor(w / n * float64(i))),
			Y: p.Y(v, maxV),
		}
	}

	yAvg := p.Y(col.Avg.Float(), maxV)
	return models.ChartSeries{
		Role:   role,
		Index:  col.Index,
		Name:   col.Name,
		Points: points,
		Average: [2]models.ChartPoint{
			{X: 0, Y: yAvg},
			{X: p.canvas.Width, Y: yAvg},
		},
		Min: col.Min,
		Max: col.Max,
		Avg: col.Avg,
	}, nil
}

// Y computes H - floor(H/100 * (value/max * 100)). A zero max or a
// non-finite ratio places the value on the baseline.
func (p *Projector) Y(value, maxV float64) int {
	h := float64(p.canvas.Height)
	percent := 0.0
	if maxV != 0 {
		percent = value / maxV * 100
	}
	if math.IsNaN(percent) || math.IsInf(percent, 0) {
		percent = 0
	}
	return p.canvas.Height - int(math.Floor(h/100*percent))
}
