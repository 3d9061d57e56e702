// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/session"
)

// SessionHandler handles upload sessions and their column models
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleUploadToSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleGetFields(c echo.Context) error
	HandleGetColumns(c echo.Context) error
	HandleGetColumnsMsgpack(c echo.Context) error
	HandleGetColumn(c echo.Context) error
}

// ChartHandler handles chart projection and rendering
type ChartHandler interface {
	HandleGetChart(c echo.Context) error
	HandleRenderChart(c echo.Context) error
}

// ExportHandler handles sampled data downloads
type ExportHandler interface {
	HandleDownloadCSV(c echo.Context) error
	HandleDownloadXLSX(c echo.Context) error
}

// SnapshotHandler handles the persisted column snapshot and overlay sources
type SnapshotHandler interface {
	HandleSaveSnapshot(c echo.Context) error
	HandleGetSnapshot(c echo.Context) error
	HandleDeleteSnapshot(c echo.Context) error
	HandleGetExampleOverlay(c echo.Context) error
}

// FileHandler handles stored uploads
type FileHandler interface {
	HandleGetRecentFiles(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// StreamHandler handles the websocket stage stream
type StreamHandler interface {
	HandleSessionStream(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Start(files []models.RawFile, sampleRate int) (*session.Session, error)
	Restart(id string, files []models.RawFile, sampleRate int) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Touch(id string) bool
	Delete(id string) error
	Len() int
}
