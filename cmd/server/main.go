package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/obd2-sampler/backend/internal/api"
	"github.com/obd2-sampler/backend/internal/chart"
	"github.com/obd2-sampler/backend/internal/config"
	"github.com/obd2-sampler/backend/internal/metrics"
	"github.com/obd2-sampler/backend/internal/overlay"
	"github.com/obd2-sampler/backend/internal/session"
	"github.com/obd2-sampler/backend/internal/storage"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "obd2-sampler: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	configPath := filepath.Join(filepath.Dir(exePath), config.DefaultConfigFile)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger := config.NewLogger(os.Stdout, cfg.Advanced.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	snapshots, err := storage.NewDuckSnapshotStore(cfg.Storage.SnapshotDatabase, logger)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer snapshots.Close()

	overlays, err := overlay.NewProvider(snapshots, cfg.Sampling.SnapshotSlot)
	if err != nil {
		return fmt.Errorf("failed to load example overlay: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	sessionMgr := session.NewManager(ctx, session.ManagerConfig{
		Options: session.Options{
			MaxFileSize: cfg.Sampling.MaxFileSize,
			Delimiter:   cfg.Sampling.Delimiter,
			Files:       fileStore,
		},
		MaxSessions: cfg.Processing.MaxSessions,
		Logger:      logger,
		Metrics:     m,
	})
	defer sessionMgr.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:         logger,
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   splitOrigins(cfg.Server.AllowOrigins),
		BodyLimit:      cfg.Server.BodyLimit,
	})

	handlers := api.NewHandlers(&api.Dependencies{
		Store:             fileStore,
		Snapshots:         snapshots,
		SessionMgr:        sessionMgr,
		Overlays:          overlays,
		Metrics:           m,
		Logger:            logger,
		Canvas:            chart.Canvas{Width: cfg.Sampling.CanvasWidth, Height: cfg.Sampling.CanvasHeight},
		SampleRate:        cfg.Sampling.SampleRate,
		MaxFileSize:       cfg.Sampling.MaxFileSize,
		RecentFilesLimit:  cfg.Storage.RecentFilesLimit,
		AllowFileDeletion: cfg.Security.AllowFileDeletion,
		WebSocketBufferKB: cfg.Advanced.WebSocketBufferSize,
		Version:           Version,
	})
	api.RegisterRoutes(e, handlers,
		api.UploadRateLimiter(cfg.Processing.UploadRateLimit, cfg.Processing.UploadBurst))
	api.RegisterMetricsRoute(e, registry)

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      e,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	logger.Info("OBD2 sampler starting",
		"version", Version,
		"build_time", BuildTime,
		"config", configPath,
		"listen", cfg.GetServerAddr(),
		"data_dir", cfg.Storage.DataDirectory)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessionMgr.RunCleanup(gctx, cfg.CleanupInterval(), cfg.SessionTimeout())
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
