package storage

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/obd2-sampler/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshotStore(t *testing.T) *DuckSnapshotStore {
	t.Helper()
	store, err := NewDuckSnapshotStore(filepath.Join(t.TempDir(), "snap", "snapshots.duckdb"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDuckSnapshotStore_SaveLoad(t *testing.T) {
	store := newTestSnapshotStore(t)
	ctx := context.Background()

	columns := models.ColumnSet{
		{Index: 0, Name: "rpm", Values: []string{"800", "900"}, Min: 800, Max: 900, Avg: 850},
		{Index: 1, Name: "note", Values: []string{"a", "b"}, Min: models.Stat(math.NaN()), Max: models.Stat(math.NaN()), Avg: models.Stat(math.NaN())},
	}

	saved, err := store.Save(ctx, "slot", columns)
	require.NoError(t, err)
	assert.Equal(t, "slot", saved.Name)

	loaded, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	require.Len(t, loaded.Columns, 2)
	assert.Equal(t, "rpm", loaded.Columns[0].Name)
	assert.Equal(t, []string{"800", "900"}, loaded.Columns[0].Values)
	assert.Equal(t, models.Stat(800), loaded.Columns[0].Min)
	assert.Equal(t, models.Stat(900), loaded.Columns[0].Max)
	assert.Equal(t, models.Stat(850), loaded.Columns[0].Avg)
	assert.Equal(t, []string{"a", "b"}, loaded.Columns[1].Values)
	assert.False(t, loaded.Columns[1].Min.Valid())
	assert.False(t, loaded.Columns[1].Max.Valid())
	assert.False(t, loaded.Columns[1].Avg.Valid())
}

func TestDuckSnapshotStore_LastWriteWins(t *testing.T) {
	store := newTestSnapshotStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "slot", models.ColumnSet{{Name: "old"}})
	require.NoError(t, err)
	_, err = store.Save(ctx, "slot", models.ColumnSet{{Name: "new"}})
	require.NoError(t, err)

	loaded, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	require.Len(t, loaded.Columns, 1)
	assert.Equal(t, "new", loaded.Columns[0].Name)
}

func TestDuckSnapshotStore_Missing(t *testing.T) {
	store := newTestSnapshotStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "nothing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = store.Save(ctx, "slot", models.ColumnSet{{Name: "x"}})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "slot"))
	require.NoError(t, store.Delete(ctx, "slot"))

	_, err = store.Load(ctx, "slot")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestDuckSnapshotStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.duckdb")
	ctx := context.Background()

	store, err := NewDuckSnapshotStore(path, nil)
	require.NoError(t, err)
	_, err = store.Save(ctx, "slot", models.ColumnSet{{Name: "speed", Values: []string{"10"}}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewDuckSnapshotStore(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, "speed", loaded.Columns[0].Name)
}
