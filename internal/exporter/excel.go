package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of tabular content: a header row plus data rows.
// Cells may be string, int, or float64; floats are written as numbers so
// Excel can aggregate them.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// ExcelWriter builds multi-sheet XLSX workbooks from tabular summaries.
type ExcelWriter struct{}

// NewExcelWriter creates a new Excel writer instance
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// WriteWorkbook writes all sheets into a single workbook at outputPath.
// The first sheet replaces the default "Sheet1".
func (w *ExcelWriter) WriteWorkbook(outputPath string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	slog.Info("Writing Excel workbook",
		slog.String("file_path", outputPath),
		slog.Int("sheet_count", len(sheets)))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range sheets {
		name := SanitizeSheetName(sheet.Name)

		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename default sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("create sheet %s: %w", name, err)
			}
		}

		for col, header := range sheet.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return fmt.Errorf("resolve header cell: %w", err)
			}
			if err := f.SetCellValue(name, cell, header); err != nil {
				return fmt.Errorf("write header %s: %w", header, err)
			}
			colName, err := excelize.ColumnNumberToName(col + 1)
			if err != nil {
				return fmt.Errorf("resolve column name: %w", err)
			}
			if err := f.SetColWidth(name, colName, colName, columnWidth(header)); err != nil {
				return fmt.Errorf("set column width: %w", err)
			}
		}

		if len(sheet.Headers) > 0 {
			last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
			if err != nil {
				return fmt.Errorf("resolve last header cell: %w", err)
			}
			if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
				return fmt.Errorf("style header row: %w", err)
			}
		}

		for r, row := range sheet.Rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+2)
				if err != nil {
					return fmt.Errorf("resolve cell: %w", err)
				}
				if err := f.SetCellValue(name, cell, value); err != nil {
					return fmt.Errorf("write cell %s: %w", cell, err)
				}
			}
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	return nil
}

// SanitizeSheetName makes a dataset name a legal Excel sheet name: the .csv
// suffix is dropped, forbidden characters replaced, length capped at 31.
func SanitizeSheetName(name string) string {
	name = strings.TrimSuffix(name, ".csv")
	replacer := strings.NewReplacer("/", "_", "\\", "_", "?", "_", "*", "_", "[", "(", "]", ")", ":", "_")
	name = replacer.Replace(name)
	if name == "" {
		name = "Sheet"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// columnWidth sizes a column from its header text, clamped to a sane range.
func columnWidth(header string) float64 {
	width := float64(len(header)) + 4
	if width < 12 {
		width = 12
	}
	if width > 40 {
		width = 40
	}
	return width
}
