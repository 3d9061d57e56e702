// handlers_export.go - Sampled data download handlers
package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/obd2-sampler/backend/internal/export"
)

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	sessionMgr SessionManager
}

// NewExportHandler creates a new export handler instance
func NewExportHandler(sessionMgr SessionManager) ExportHandler {
	return &ExportHandlerImpl{sessionMgr: sessionMgr}
}

// HandleDownloadCSV returns the header and sampled rows joined by newlines
func (h *ExportHandlerImpl) HandleDownloadCSV(c echo.Context) error {
	sess, err := lookupSession(h.sessionMgr, c.Param("id"))
	if err != nil {
		return err
	}
	sampled, err := sess.Sampled()
	if err != nil {
		return NewConflictError("session is not ready: " + string(sess.Stage()))
	}

	setAttachment(c, export.CSVFileName)
	return c.Blob(http.StatusOK, export.CSVContentType, []byte(export.CSV(sampled)))
}

// HandleDownloadXLSX returns the sampled table as a workbook
func (h *ExportHandlerImpl) HandleDownloadXLSX(c echo.Context) error {
	sess, err := lookupSession(h.sessionMgr, c.Param("id"))
	if err != nil {
		return err
	}
	table, err := sess.Table()
	if err != nil {
		return NewConflictError("session is not ready: " + string(sess.Stage()))
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, table); err != nil {
		return NewInternalError("failed to build workbook", err)
	}

	setAttachment(c, export.XLSXFileName)
	return c.Blob(http.StatusOK, export.XLSXContentType, buf.Bytes())
}

func setAttachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}
