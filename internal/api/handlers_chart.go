// handlers_chart.go - Chart projection handlers
package api

import (
	"bytes"
	"errors"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/obd2-sampler/backend/internal/chart"
	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/overlay"
)

// ChartHandlerImpl implements the ChartHandler interface
type ChartHandlerImpl struct {
	sessionMgr SessionManager
	overlays   *overlay.Provider
	projector  *chart.Projector
}

// NewChartHandler creates a new chart handler instance
func NewChartHandler(sessionMgr SessionManager, overlays *overlay.Provider, canvas chart.Canvas) ChartHandler {
	return &ChartHandlerImpl{
		sessionMgr: sessionMgr,
		overlays:   overlays,
		projector:  chart.NewProjector(canvas),
	}
}

// HandleGetChart returns the projected series as JSON.
// Query: field (index or name, default first eligible), overlay (example|cached).
func (h *ChartHandlerImpl) HandleGetChart(c echo.Context) error {
	ch, err := h.build(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ch)
}

// HandleRenderChart renders the chart as SVG or PNG, by route extension.
func (h *ChartHandlerImpl) HandleRenderChart(c echo.Context) error {
	format, err := chart.ParseFormat(path.Ext(c.Path()))
	if err != nil {
		return NewBadRequestError("unsupported chart format", err)
	}

	ch, err := h.build(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, format, ch); err != nil {
		return NewInternalError("failed to render chart", err)
	}
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *ChartHandlerImpl) build(c echo.Context) (models.Chart, error) {
	sess, err := lookupSession(h.sessionMgr, c.Param("id"))
	if err != nil {
		return models.Chart{}, err
	}
	cols, err := sess.Columns()
	if err != nil {
		return models.Chart{}, NewConflictError("session is not ready: " + string(sess.Stage()))
	}

	col, err := selectField(cols, c.QueryParam("field"))
	if err != nil {
		return models.Chart{}, err
	}

	primary, err := h.projector.Project(col, models.SeriesRolePrimary)
	if err != nil {
		return models.Chart{}, FromError(err)
	}

	canvas := h.projector.Canvas()
	result := models.Chart{Width: canvas.Width, Height: canvas.Height, Primary: primary}

	if src := c.QueryParam("overlay"); src != "" {
		source, err := overlay.ParseSource(src)
		if err != nil {
			return models.Chart{}, NewValidationError("overlay")
		}
		others, err := h.overlays.Columns(c.Request().Context(), source)
		if err != nil {
			return models.Chart{}, FromError(err)
		}
		if match, ok := overlay.Match(col, others); ok {
			series, err := h.projector.Project(match, models.SeriesRoleOverlay)
			if err == nil {
				result.Overlay = &series
			} else if !errors.Is(err, chart.ErrNotEligible) {
				return models.Chart{}, FromError(err)
			}
		}
	}

	return result, nil
}

// selectField resolves the field query against the column set. An empty
// query selects the first eligible column.
func selectField(cols models.ColumnSet, field string) (models.Column, error) {
	if field == "" {
		eligible := cols.Eligible()
		if len(eligible) == 0 {
			return models.Column{}, FromError(chart.ErrNotEligible)
		}
		col, _ := cols.ByIndex(eligible[0].Index)
		return col, nil
	}

	if index, err := strconv.Atoi(field); err == nil {
		if col, ok := cols.ByIndex(index); ok {
			return col, nil
		}
	}
	if col, ok := cols.ByName(field); ok {
		return col, nil
	}
	return models.Column{}, NewNotFoundError("field", field)
}
