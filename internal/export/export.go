// Package export produces downloadable renditions of a sampled dataset.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/obd2-sampler/backend/internal/models"
)

const (
	// CSVFileName is the download name of the sampled text blob.
	CSVFileName = "sampled-data.csv"
	// XLSXFileName is the download name of the workbook.
	XLSXFileName = "sampled-data.xlsx"
	// SheetName names the single worksheet of the workbook.
	SheetName = "sampled-data"

	CSVContentType  = "text/plain; charset=utf-8"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// CSV joins the header and the sampled rows with "\n". There is no
// trailing newline.
func CSV(ds models.Dataset) string {
	lines := make([]string, 0, len(ds.Rows)+1)
	lines = append(lines, ds.Header)
	lines = append(lines, ds.Rows...)
	return strings.Join(lines, "\n")
}

// WriteXLSX writes the table as a single-sheet workbook. Fields that parse
// as numbers are stored as numeric cells.
func WriteXLSX(w io.Writer, table models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := writeRow(f, 1, table.Header, false); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := writeRow(f, i+2, row, true); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, fields []string, numeric bool) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(fields))
	for i, field := range fields {
		values[i] = field
		if !numeric {
			continue
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil {
			values[i] = n
		}
	}

	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", rowNum, err)
	}
	return nil
}
