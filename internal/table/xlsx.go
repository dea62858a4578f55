package table

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrEmptySheet is returned when the workbook has no header row to read.
var ErrEmptySheet = errors.New("spreadsheet has no header row")

// Load reads the first sheet of an xlsx workbook. The first row becomes the
// column names; every following row becomes a data row.
func Load(path string) (*Table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptySheet
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}

	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	return New(rows[0], rows[1:]), nil
}

// Save writes the table to an xlsx workbook at the given path, header row
// first, data rows in their original order.
func (t *Table) Save(path string) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)

	header := make([]interface{}, len(t.headers))
	for i, name := range t.headers {
		header[i] = name
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, cells := range t.rows {
		out := make([]interface{}, len(cells))
		for j, cell := range cells {
			out[j] = cell
		}

		ref, err := excelize.CoordinatesToCellName(1, i+2) //nolint:mnd // data rows start below the header
		if err != nil {
			return fmt.Errorf("failed to build cell reference: %w", err)
		}
		if err = file.SetSheetRow(sheet, ref, &out); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}
