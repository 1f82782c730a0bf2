// Package export writes the final roster table to an XLSX workbook.
package export

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"rostersync/internal"
)

var headers = []string{"Client Name", "Short Name", "Birthday", "Client Status"}

func RecordsToXLSX(records []internal.FinalRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range records {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, rec.FullName)
		set(2, rec.ShortName)
		set(3, derefString(rec.Birthday))
		set(4, string(rec.Status))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
