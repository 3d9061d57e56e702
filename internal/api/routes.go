// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/obd2-sampler/backend/internal/chart"
	"github.com/obd2-sampler/backend/internal/metrics"
	"github.com/obd2-sampler/backend/internal/overlay"
	"github.com/obd2-sampler/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             storage.Store
	Snapshots         storage.SnapshotStore
	SessionMgr        SessionManager
	Overlays          *overlay.Provider
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
	Canvas            chart.Canvas
	SampleRate        int
	MaxFileSize       int64
	RecentFilesLimit  int
	AllowFileDeletion bool
	WebSocketBufferKB int
	Version           string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Session  SessionHandler
	Chart    ChartHandler
	Export   ExportHandler
	Snapshot SnapshotHandler
	File     FileHandler
	Stream   StreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.SessionMgr),
		Session:  NewSessionHandler(deps.Store, deps.SessionMgr, deps.Metrics, deps.MaxFileSize, deps.SampleRate, logger),
		Chart:    NewChartHandler(deps.SessionMgr, deps.Overlays, deps.Canvas),
		Export:   NewExportHandler(deps.SessionMgr),
		Snapshot: NewSnapshotHandler(deps.SessionMgr, deps.Snapshots, deps.Overlays),
		File:     NewFileHandler(deps.Store, deps.RecentFilesLimit, deps.AllowFileDeletion),
		Stream:   NewWebSocketHandler(deps.SessionMgr, deps.WebSocketBufferKB, logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance.
// uploadMiddleware wraps the routes that accept file uploads.
func RegisterRoutes(e *echo.Echo, handlers *Handlers, uploadMiddleware ...echo.MiddlewareFunc) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Session routes
	sessionGroup := e.Group("/api/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession, uploadMiddleware...)
	sessionGroup.POST("/:id/files", handlers.Session.HandleUploadToSession, uploadMiddleware...)
	sessionGroup.GET("/:id", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessionGroup.GET("/:id/ws", handlers.Stream.HandleSessionStream)
	sessionGroup.GET("/:id/fields", handlers.Session.HandleGetFields)
	sessionGroup.GET("/:id/columns", handlers.Session.HandleGetColumns)
	sessionGroup.GET("/:id/columns/msgpack", handlers.Session.HandleGetColumnsMsgpack)
	sessionGroup.GET("/:id/columns/:index", handlers.Session.HandleGetColumn)

	// Chart routes
	sessionGroup.GET("/:id/chart", handlers.Chart.HandleGetChart)
	sessionGroup.GET("/:id/chart.svg", handlers.Chart.HandleRenderChart)
	sessionGroup.GET("/:id/chart.png", handlers.Chart.HandleRenderChart)

	// Download routes
	sessionGroup.GET("/:id/download", handlers.Export.HandleDownloadCSV)
	sessionGroup.GET("/:id/download.xlsx", handlers.Export.HandleDownloadXLSX)

	// Snapshot slot routes
	sessionGroup.POST("/:id/snapshot", handlers.Snapshot.HandleSaveSnapshot)
	e.GET("/api/snapshot", handlers.Snapshot.HandleGetSnapshot)
	e.DELETE("/api/snapshot", handlers.Snapshot.HandleDeleteSnapshot)
	e.GET("/api/overlay/example", handlers.Snapshot.HandleGetExampleOverlay)

	// Stored file routes
	fileGroup := e.Group("/api/files")
	fileGroup.GET("/recent", handlers.File.HandleGetRecentFiles)
	fileGroup.DELETE("/:id", handlers.File.HandleDeleteFile)
}

// RegisterMetricsRoute exposes the Prometheus registry
func RegisterMetricsRoute(e *echo.Echo, gatherer prometheus.Gatherer) {
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

// MiddlewareConfig configures SetupMiddleware
type MiddlewareConfig struct {
	Logger         *slog.Logger
	RequestLogging bool
	EnableCORS     bool
	AllowOrigins   []string
	BodyLimit      string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Use custom error handler
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(middleware.Recover())

	if cfg.RequestLogging {
		httpLogger := logger.With("component", "http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				attrs := []any{
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency", v.Latency,
				}
				if v.Error != nil {
					attrs = append(attrs, "error", v.Error.Error())
				}
				httpLogger.Info("Request", attrs...)
				return nil
			},
		}))
	}

	if cfg.EnableCORS {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
}

// UploadRateLimiter limits upload requests per client IP
func UploadRateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(rps),
		Burst: burst,
	})
	return middleware.RateLimiter(store)
}
