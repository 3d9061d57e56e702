package models

import (
	"io"
	"time"
)

// FileInfo represents metadata about an uploaded file.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MIMEType   string    `json:"mimeType,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "uploaded", "consolidated", "rejected"
}

// RawFile is a candidate input file as handed over by the upload layer.
// Open is called at most once, by the sequential reader.
type RawFile struct {
	ID       string
	Name     string
	MIMEType string
	Size     int64
	Open     func() (io.ReadCloser, error) `json:"-"`
}
