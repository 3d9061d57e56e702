// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// DefaultConfigFile is the configuration file name looked up next to the binary.
const DefaultConfigFile = "obd2-sampler.config.xml"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"OBD2Sampler"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Sampling pipeline configuration
	Sampling SamplingConfig `xml:"Sampling"`

	// Session processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int    `xml:"Port" validate:"min=1,max=65535"`
	BindAddress     string `xml:"BindAddress"`
	EnableCORS      bool   `xml:"EnableCORS"`
	AllowOrigins    string `xml:"AllowOrigins"`
	ReadTimeout     int    `xml:"ReadTimeoutSeconds" validate:"min=0"`
	WriteTimeout    int    `xml:"WriteTimeoutSeconds" validate:"min=0"`
	IdleTimeout     int    `xml:"IdleTimeoutSeconds" validate:"min=0"`
	ShutdownTimeout int    `xml:"ShutdownTimeoutSeconds" validate:"min=1"`
	BodyLimit       string `xml:"BodyLimit" validate:"required"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory" validate:"required"`
	UploadsDirectory string `xml:"UploadsDirectory" validate:"required"`
	SnapshotDatabase string `xml:"SnapshotDatabase" validate:"required"`
	RecentFilesLimit int    `xml:"RecentFilesLimit" validate:"min=1"`
}

// SamplingConfig contains the ingestion and chart settings
type SamplingConfig struct {
	SampleRate   int    `xml:"SampleRate" validate:"min=1"`
	MaxFileSize  int64  `xml:"MaxFileSizeBytes" validate:"min=1"`
	Delimiter    string `xml:"Delimiter" validate:"required"`
	CanvasWidth  int    `xml:"CanvasWidth" validate:"min=1"`
	CanvasHeight int    `xml:"CanvasHeight" validate:"min=1"`
	SnapshotSlot string `xml:"SnapshotSlot" validate:"required"`
}

// ProcessingConfig contains session and upload throttling settings
type ProcessingConfig struct {
	MaxSessions            int     `xml:"MaxSessions" validate:"min=1"`
	SessionTimeoutMinutes  int     `xml:"SessionTimeoutMinutes" validate:"min=1"`
	CleanupIntervalMinutes int     `xml:"CleanupIntervalMinutes" validate:"min=1"`
	UploadRateLimit        float64 `xml:"UploadRequestsPerSecond" validate:"gt=0"`
	UploadBurst            int     `xml:"UploadBurst" validate:"min=1"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowFileDeletion bool `xml:"AllowFileDeletion"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" validate:"oneof=debug info warn error"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	WebSocketBufferSize  int    `xml:"WebSocketBufferSizeKB" validate:"min=1"`
}

// envOverrides lists the environment variables that take precedence over
// the file. Unset variables leave the file value alone.
type envOverrides struct {
	Port        *int    `envconfig:"PORT"`
	BindAddress *string `envconfig:"BIND_ADDRESS"`
	DataDir     *string `envconfig:"DATA_DIR"`
	UploadsDir  *string `envconfig:"UPLOADS_DIR"`
	SnapshotDB  *string `envconfig:"SNAPSHOT_DB"`
	SampleRate  *int    `envconfig:"SAMPLE_RATE"`
	MaxFileSize *int64  `envconfig:"MAX_FILE_SIZE"`
	MaxSessions *int    `envconfig:"MAX_SESSIONS"`
	LogLevel    *string `envconfig:"LOG_LEVEL"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:            8089,
			BindAddress:     "0.0.0.0",
			EnableCORS:      true,
			AllowOrigins:    "*",
			ReadTimeout:     30,
			WriteTimeout:    30,
			IdleTimeout:     120,
			ShutdownTimeout: 10,
			BodyLimit:       "100M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			SnapshotDatabase: "./data/snapshots.duckdb",
			RecentFilesLimit: 20,
		},
		Sampling: SamplingConfig{
			SampleRate:   60,
			MaxFileSize:  10_000_000,
			Delimiter:    ",",
			CanvasWidth:  800,
			CanvasHeight: 400,
			SnapshotSlot: "obd2-cached-columns",
		},
		Processing: ProcessingConfig{
			MaxSessions:            10,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			UploadRateLimit:        2,
			UploadBurst:            5,
		},
		Security: SecurityConfig{
			AllowFileDeletion: true,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			WebSocketBufferSize:  64,
		},
	}
}

// LoadConfig loads configuration from XML file, creating it with defaults
// on first run. Environment overrides are applied and the result validated.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- OBD2 Sampler Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks value ranges of every section.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to load config from env: %w", err)
	}

	if env.Port != nil {
		c.Server.Port = *env.Port
	}
	if env.BindAddress != nil {
		c.Server.BindAddress = *env.BindAddress
	}
	if env.DataDir != nil {
		c.Storage.DataDirectory = *env.DataDir
	}
	if env.UploadsDir != nil {
		c.Storage.UploadsDirectory = *env.UploadsDir
	}
	if env.SnapshotDB != nil {
		c.Storage.SnapshotDatabase = *env.SnapshotDB
	}
	if env.SampleRate != nil {
		c.Sampling.SampleRate = *env.SampleRate
	}
	if env.MaxFileSize != nil {
		c.Sampling.MaxFileSize = *env.MaxFileSize
	}
	if env.MaxSessions != nil {
		c.Processing.MaxSessions = *env.MaxSessions
	}
	if env.LogLevel != nil {
		c.Advanced.LogLevel = *env.LogLevel
	}
	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.SnapshotDatabase,
	} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// SessionTimeout returns the idle age after which finished sessions are dropped.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Processing.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns the period of the session cleanup loop.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Processing.CleanupIntervalMinutes) * time.Minute
}

// ShutdownTimeout returns the graceful shutdown deadline.
func (c *AppConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeout) * time.Second
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		filepath.Dir(c.Storage.SnapshotDatabase),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
