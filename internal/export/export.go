// Package export writes query results as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/starford/cpidash/internal/models"
)

// SheetName is the name of the single worksheet.
const SheetName = "抽出後データ"

// Headers is the header row of the exported sheet.
var Headers = []string{"地域名", "時間軸（年・月）", "品目名", "指数", "前年同月比【%】"}

// WriteXLSX writes records to w as a one-sheet workbook. Null values are left
// as blank cells. An empty slice produces a header-only sheet.
func WriteXLSX(w io.Writer, records []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	for i, h := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("export: header: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("export: header: %w", err)
		}
	}

	for i, rec := range records {
		if err := writeRow(f, i+2, rec); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("export: freeze header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

// writeRow writes rec to sheet row r. Null values leave their cell unset.
func writeRow(f *excelize.File, r int, rec models.Record) error {
	values := []any{rec.Region, rec.PeriodLabel, rec.Item, nil, nil}
	if rec.Index != nil {
		values[3] = *rec.Index
	}
	if rec.YoY != nil {
		values[4] = *rec.YoY
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, r)
		if err != nil {
			return fmt.Errorf("export: row %d: %w", r, err)
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return fmt.Errorf("export: row %d: %w", r, err)
		}
	}
	return nil
}
