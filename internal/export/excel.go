package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelWriter implements SheetWriter by writing a local .xlsx workbook.
type ExcelWriter struct {
	path string
}

// NewExcelWriter creates an ExcelWriter targeting the given file path.
func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

// Write renders the report into a single Pools sheet and saves the workbook,
// replacing any previous file at the path.
func (w *ExcelWriter) Write(_ context.Context, rows []ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Pools"
	f.SetSheetName("Sheet1", sheet)

	for rowIdx, values := range buildPoolRows(rows) {
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("resolving cell coordinates: %w", err)
			}
			if v == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("writing cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}
