package parser

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/obd2-sampler/backend/internal/models"
)

var errReaderBusy = errors.New("a file read is already in flight")

// ConsumeFunc receives the text content of one file.
type ConsumeFunc func(index int, name, content string) error

// SequentialReader reads accepted files strictly one at a time, in slice
// order. The index only advances after the consumer accepted a file, so a
// failing consumer halts the sequence and no later file is opened.
type SequentialReader struct {
	files   []models.RawFile
	maxSize int64
	index   int
	busy    bool
}

// NewSequentialReader creates a reader over the accepted files. Content of
// maxSize bytes or more is rejected even if the declared size was smaller.
func NewSequentialReader(files []models.RawFile, maxSize int64) *SequentialReader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &SequentialReader{files: files, maxSize: maxSize}
}

// Index returns the number of files consumed so far.
func (r *SequentialReader) Index() int {
	return r.index
}

// Total returns the number of accepted files.
func (r *SequentialReader) Total() int {
	return len(r.files)
}

// Done reports whether every file has been consumed.
func (r *SequentialReader) Done() bool {
	return r.index == len(r.files)
}

// Next reads the next file and hands it to consume. It returns io.EOF when
// there is nothing left to read.
func (r *SequentialReader) Next(consume ConsumeFunc) error {
	if r.busy {
		return errReaderBusy
	}
	if r.Done() {
		return io.EOF
	}

	r.busy = true
	defer func() { r.busy = false }()

	f := r.files[r.index]
	content, err := r.read(f)
	if err != nil {
		return err
	}
	if err := consume(r.index, f.Name, content); err != nil {
		return err
	}
	r.index++
	return nil
}

// ReadAll drives Next until every file is consumed. The context is only
// checked between files; a read in flight always completes.
func (r *SequentialReader) ReadAll(ctx context.Context, consume ConsumeFunc) error {
	for !r.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Next(consume); err != nil {
			return err
		}
	}
	return nil
}

func (r *SequentialReader) read(f models.RawFile) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("reading %s: file has no content source", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, r.maxSize))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.Name, err)
	}
	if int64(len(data)) >= r.maxSize {
		return "", fmt.Errorf("%w: %s has at least %d bytes", ErrFileTooLarge, f.Name, r.maxSize)
	}
	return string(data), nil
}
