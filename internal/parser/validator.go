package parser

import (
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/obd2-sampler/backend/internal/models"
)

// DefaultMaxFileSize is the exclusive per-file size ceiling in bytes.
const DefaultMaxFileSize int64 = 10_000_000

// genericMIMETypes are media types that say nothing about the content; for
// those the file extension decides.
var genericMIMETypes = map[string]bool{
	"":                         true,
	"application/octet-stream": true,
	"application/vnd.ms-excel": true,
}

// FileValidator checks a candidate file set against the type and size policy.
type FileValidator struct {
	maxSize int64
	logger  *slog.Logger
}

// NewFileValidator creates a validator. A non-positive maxSize selects
// DefaultMaxFileSize.
func NewFileValidator(maxSize int64, logger *slog.Logger) *FileValidator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxSize: maxSize,
		logger:  logger.With(slog.String("component", "validator")),
	}
}

// MaxSize returns the exclusive size ceiling.
func (v *FileValidator) MaxSize() int64 {
	return v.maxSize
}

// Validate accepts the set only if every file is CSV and below the size
// ceiling. The type check runs over the whole set before the size check.
func (v *FileValidator) Validate(files []models.RawFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	for _, f := range files {
		if !IsCSV(f.Name, f.MIMEType) {
			v.logger.Warn("Rejected file set: invalid file type",
				slog.String("file", f.Name),
				slog.String("mime_type", f.MIMEType),
				slog.Int("files", len(files)))
			return fmt.Errorf("%w: %s (%s)", ErrInvalidFileType, f.Name, f.MIMEType)
		}
	}

	for _, f := range files {
		if f.Size >= v.maxSize {
			v.logger.Warn("Rejected file set: file too large",
				slog.String("file", f.Name),
				slog.Int64("size", f.Size),
				slog.Int64("max_size", v.maxSize))
			return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, f.Name, f.Size, v.maxSize)
		}
	}

	v.logger.Debug("File set accepted", slog.Int("files", len(files)))
	return nil
}

// IsCSV reports whether a file is delimited text by media type, or by
// extension when the media type is generic.
func IsCSV(name, mimeType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(mimeType))
	if mediaType != "" {
		if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = parsed
		}
	}
	if mediaType == "text/csv" {
		return true
	}
	if genericMIMETypes[mediaType] {
		return strings.EqualFold(filepath.Ext(name), ".csv")
	}
	return false
}
