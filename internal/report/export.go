package report

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ExportRows writes extracted control rows to an XLSX workbook.
func ExportRows(rows []Row, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"table_code", "control_id", "control_label", "title"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, row.TableCode)
		set(2, row.ControlID)
		set(3, row.ControlLabel)
		set(4, row.Title)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
