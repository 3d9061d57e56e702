package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/obd2-sampler/backend/internal/models"
)

func TestCSV(t *testing.T) {
	ds := models.Dataset{Header: "rpm,speed", Rows: []string{"800,0", "900,10"}}
	assert.Equal(t, "rpm,speed\n800,0\n900,10", CSV(ds))

	assert.Equal(t, "rpm", CSV(models.Dataset{Header: "rpm"}))
}

func TestWriteXLSX(t *testing.T) {
	table := models.Table{
		Header: []string{"time", "rpm"},
		Rows: [][]string{
			{"00:00", "800"},
			{"00:01", "912"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"time", "rpm"},
		{"00:00", "800"},
		{"00:01", "912"},
	}, rows)
}
