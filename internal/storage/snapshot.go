package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/obd2-sampler/backend/internal/models"
)

// ErrSnapshotNotFound is returned when a named slot holds nothing.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists column sets under a name, last write wins.
type SnapshotStore interface {
	Save(ctx context.Context, name string, columns models.ColumnSet) (*models.Snapshot, error)
	Load(ctx context.Context, name string) (*models.Snapshot, error)
	Delete(ctx context.Context, name string) error
}

// DuckSnapshotStore keeps snapshots as JSON payloads in a DuckDB file.
type DuckSnapshotStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewDuckSnapshotStore opens (or creates) the snapshot database at path.
func NewDuckSnapshotStore(path string, logger *slog.Logger) (*DuckSnapshotStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "snapshots")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			name     VARCHAR PRIMARY KEY,
			payload  VARCHAR NOT NULL,
			saved_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("snapshot store ready", "path", path)
	return &DuckSnapshotStore{db: db, path: path, logger: logger}, nil
}

// Save replaces whatever the slot held.
func (s *DuckSnapshotStore) Save(ctx context.Context, name string, columns models.ColumnSet) (*models.Snapshot, error) {
	payload, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	savedAt := time.Now().UTC().Truncate(time.Microsecond)
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (name, payload, saved_at) VALUES (?, ?, ?)`,
		name, string(payload), savedAt)
	if err != nil {
		return nil, fmt.Errorf("saving snapshot %s: %w", name, err)
	}

	s.logger.Info("snapshot saved", "name", name, "columns", len(columns))
	return &models.Snapshot{Name: name, SavedAt: savedAt, Columns: columns}, nil
}

// Load returns the slot content or ErrSnapshotNotFound.
func (s *DuckSnapshotStore) Load(ctx context.Context, name string) (*models.Snapshot, error) {
	var payload string
	var savedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM snapshots WHERE name = ?`, name).Scan(&payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", name, err)
	}

	var columns models.ColumnSet
	if err := json.Unmarshal([]byte(payload), &columns); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", name, err)
	}

	return &models.Snapshot{Name: name, SavedAt: savedAt, Columns: columns}, nil
}

// Delete empties the slot. Deleting an empty slot is not an error.
func (s *DuckSnapshotStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", name, err)
	}
	return nil
}

// Close releases the database.
func (s *DuckSnapshotStore) Close() error {
	return s.db.Close()
}
