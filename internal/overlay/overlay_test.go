package overlay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obd2-sampler/backend/internal/models"
	"github.com/obd2-sampler/backend/internal/storage"
	"github.com/obd2-sampler/backend/internal/testutil"
)

func TestParseSource(t *testing.T) {
	src, err := ParseSource(" Cached ")
	require.NoError(t, err)
	assert.Equal(t, SourceCached, src)

	src, err = ParseSource("example")
	require.NoError(t, err)
	assert.Equal(t, SourceExample, src)

	_, err = ParseSource("remote")
	assert.Error(t, err)
}

func TestLoadExample(t *testing.T) {
	cols, err := LoadExample([]byte(`
columns:
  - name: rpm
    values: ["10", "30", "x"]
  - name: label
    values: ["a", "b", "c"]
`))
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, 0, cols[0].Index)
	assert.Equal(t, []float64{10, 30}, cols[0].NumericValues)
	assert.Equal(t, models.Stat(30), cols[0].Max)
	assert.Equal(t, models.Stat(20), cols[0].Avg)
	assert.False(t, cols[1].Eligible())

	_, err = LoadExample([]byte("columns: [oops"))
	assert.Error(t, err)
}

func TestProvider_Example(t *testing.T) {
	p, err := NewProvider(testutil.NewMemorySnapshots(), "slot")
	require.NoError(t, err)

	cols, err := p.Columns(context.Background(), SourceExample)
	require.NoError(t, err)
	assert.NotEmpty(t, cols.Eligible())

	rpm, ok := cols.ByName("Engine RPM(rpm)")
	require.True(t, ok)
	assert.Len(t, rpm.NumericValues, 10)
}

func TestProvider_Cached(t *testing.T) {
	snaps := testutil.NewMemorySnapshots()
	p, err := NewProvider(snaps, "slot")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.Columns(ctx, SourceCached)
	assert.ErrorIs(t, err, storage.ErrSnapshotNotFound)

	saved := models.ColumnSet{{Index: 0, Name: "speed", Values: []string{"1"}}}
	_, err = snaps.Save(ctx, "slot", saved)
	require.NoError(t, err)

	cols, err := p.Columns(ctx, SourceCached)
	require.NoError(t, err)
	assert.Equal(t, saved, cols)
}

func TestMatch(t *testing.T) {
	set := models.ColumnSet{
		{Index: 0, Name: "time"},
		{Index: 1, Name: "speed"},
		{Index: 2, Name: "rpm"},
	}

	t.Run("by name", func(t *testing.T) {
		got, ok := Match(models.Column{Index: 1, Name: "rpm"}, set)
		require.True(t, ok)
		assert.Equal(t, 2, got.Index)
	})

	t.Run("falls back to index", func(t *testing.T) {
		got, ok := Match(models.Column{Index: 1, Name: "load"}, set)
		require.True(t, ok)
		assert.Equal(t, "speed", got.Name)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := Match(models.Column{Index: 7, Name: "load"}, set)
		assert.False(t, ok)
	})
}
