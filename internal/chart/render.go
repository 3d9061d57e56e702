package chart

import (
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/obd2-sampler/backend/internal/models"
)

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat maps a file extension or name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

var (
	primaryColor = drawing.ColorFromHex("0074d9")
	averageColor = gochart.ColorBlue
	overlayColor = drawing.ColorFromHex("ff851b")
)

func lineStyle(col drawing.Color, dashed bool) gochart.Style {
	st := gochart.Style{
		StrokeColor: col,
		StrokeWidth: 1,
	}
	if dashed {
		st.StrokeDashArray = []float64{4, 2}
	}
	return st
}

// Render draws the projected chart. Points are already in canvas space, so
// the axes are pinned to the canvas and Y is flipped back to grow upwards.
func Render(w io.Writer, format Format, c models.Chart) error {
	series := seriesFor(c.Primary, c.Height, primaryColor, false)
	if c.Overlay != nil {
		series = append(series, seriesFor(*c.Overlay, c.Height, overlayColor, true)...)
	}

	ch := gochart.Chart{
		Width:  c.Width,
		Height: c.Height,
		XAxis:  gochart.XAxis{Range: &gochart.ContinuousRange{Min: 0, Max: float64(c.Width)}},
		YAxis:  gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: float64(c.Height)}},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	provider := gochart.SVG
	if format == FormatPNG {
		provider = gochart.PNG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("rendering %s chart: %w", format, err)
	}
	return nil
}

func seriesFor(s models.ChartSeries, height int, col drawing.Color, dashed bool) []gochart.Series {
	xs := make([]float64, len(s.Points))
	ys := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		xs[i] = float64(pt.X)
		ys[i] = float64(height - pt.Y)
	}

	avgY := float64(height - s.Average[0].Y)
	return []gochart.Series{
		gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(col, dashed),
		},
		gochart.ContinuousSeries{
			Name:    s.Name + " avg",
			XValues: []float64{float64(s.Average[0].X), float64(s.Average[1].X)},
			YValues: []float64{avgY, avgY},
			Style:   lineStyle(averageColor, dashed),
		},
	}
}
