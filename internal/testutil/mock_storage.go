// mock_storage.go - In-memory store implementations for testing
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/storage"
)

var idCounter atomic.Int64

// MockStorage implements storage.Store in memory
type MockStorage struct {
	files    map[string]*models.FileInfo
	fileData map[string][]byte
	mu       sync.RWMutex
}

// NewMockStorage creates an empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:    make(map[string]*models.FileInfo),
		fileData: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name, mimeType string, r io.Reader) (*models.FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := generateTestID()
	file := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		MIMEType:   mimeType,
		UploadedAt: time.Now(),
		Status:     storage.StatusUploaded,
	}
	m.files[id] = file
	m.fileData[id] = data

	cp := *file
	return &cp, nil
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}
	cp := *file
	return &cp, nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]*models.FileInfo, 0, len(m.files))
	for _, file := range m.files {
		cp := *file
		files = append(files, &cp)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].UploadedAt.Equal(files[j].UploadedAt) {
			return files[i].ID > files[j].ID
		}
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}
	delete(m.files, id)
	delete(m.fileData, id)
	return nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockStorage) SetStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[id]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrFileNotFound, id)
	}
	file.Status = status
	return nil
}

// AddFile adds a file with a specific ID for testing
func (m *MockStorage) AddFile(id, name, content string) *models.FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	file := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(content)),
		MIMEType:   "text/csv",
		UploadedAt: time.Now(),
		Status:     storage.StatusUploaded,
	}
	m.files[id] = file
	m.fileData[id] = []byte(content)
	return file
}

// GetFileCount returns the number of files in storage
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// CSVFile builds an in-memory pipeline input.
func CSVFile(name, content string) models.RawFile {
	return models.RawFile{
		Name:     name,
		MIMEType: "text/csv",
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

// generateTestID generates a simple test ID
func generateTestID() string {
	return fmt.Sprintf("test-%d", idCounter.Add(1))
}

// MemorySnapshots implements storage.SnapshotStore in memory
type MemorySnapshots struct {
	mu    sync.Mutex
	slots map[string]models.Snapshot
}

// NewMemorySnapshots creates an empty snapshot store
func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{slots: make(map[string]models.Snapshot)}
}

func (m *MemorySnapshots) Save(_ context.Context, name string, columns models.ColumnSet) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := models.Snapshot{Name: name, SavedAt: time.Now(), Columns: columns}
	m.slots[name] = snap
	return &snap, nil
}

func (m *MemorySnapshots) Load(_ context.Context, name string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.slots[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrSnapshotNotFound, name)
	}
	return &snap, nil
}

func (m *MemorySnapshots) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, name)
	return nil
}
