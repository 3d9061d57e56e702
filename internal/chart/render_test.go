package chart

import (
	"bytes"
	"testing"

	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChart(t *testing.T, withOverlay bool) models.Chart {
	t.Helper()
	p := NewProjector(Canvas{})
	primary, err := p.Project(parser.BuildColumn(0, "speed", []string{"10", "20", "30", "25"}), models.SeriesRolePrimary)
	require.NoError(t, err)

	c := models.Chart{Width: 800, Height: 400, Primary: primary}
	if withOverlay {
		overlay, err := p.Project(parser.BuildColumn(0, "speed", []string{"5", "50", "12"}), models.SeriesRoleOverlay)
		require.NoError(t, err)
		c.Overlay = &overlay
	}
	return c
}

func TestRender_SVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatSVG, testChart(t, true)))
	assert.Contains(t, buf.String(), "<svg")
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatPNG, testChart(t, false)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".SVG")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	f, err = ParseFormat("png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}
