// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/trial-finder/internal/normalize"
)

// SheetName is the name of the single worksheet in XLSX exports.
const SheetName = "Trials"

const (
	minColumnWidth = 12
	maxColumnWidth = 60
)

// WriteXLSX writes t as a workbook with one sheet. The header row is bold
// and frozen. Cells longer than Excel's limit are truncated.
func WriteXLSX(w io.Writer, t normalize.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := setRow(f, 1, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, i+2, row); err != nil {
			return err
		}
	}

	if len(t.Columns) > 0 {
		if err := styleHeader(f, len(t.Columns)); err != nil {
			return err
		}
		if err := sizeColumns(f, t); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing XLSX: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = clip(c)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", rowNum, err)
	}
	return nil
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= excelize.TotalCellChars {
		return s
	}
	return string(r[:excelize.TotalCellChars])
}

func styleHeader(f *excelize.File, ncols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(ncols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	return nil
}

// sizeColumns widens each column to its longest header or cell, within
// fixed bounds.
func sizeColumns(f *excelize.File, t normalize.Table) error {
	for j, col := range t.Columns {
		width := len([]rune(col))
		for _, row := range t.Rows {
			if n := len([]rune(row[j])); n > width {
				width = n
			}
		}
		width = min(max(width+2, minColumnWidth), maxColumnWidth)

		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, name, name, float64(width)); err != nil {
			return fmt.Errorf("sizing column %s: %w", name, err)
		}
	}
	return nil
}
