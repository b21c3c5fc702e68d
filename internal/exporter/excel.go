package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"gridmerge/internal/timeseries"
)

// ExcelWriter exports a combined dataset as an xlsx workbook.
type ExcelWriter struct {
	// SheetName names the data sheet; defaults to "Combined".
	SheetName string

	// TimeColumnTitle heads the timestamp column; defaults to "timestamp".
	TimeColumnTitle string
}

// NewExcelWriter returns a writer with the report defaults.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{SheetName: "Combined", TimeColumnTitle: "timestamp"}
}

// Write renders the dataset into a workbook at the given path. The header
// row is bold and frozen; a units row follows when any column carries a
// unit label. Numeric cells are written as numbers so spreadsheet
// formulas keep working on the output.
func (w *ExcelWriter) Write(path string, ds *timeseries.CombinedDataset) error {
	slog.Info("writing combined workbook",
		slog.String("path", path),
		slog.Int("columns", len(ds.Columns)),
		slog.Int("rows", len(ds.Rows)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	sheet := w.SheetName
	if sheet == "" {
		sheet = "Combined"
	}
	timeTitle := w.TimeColumnTitle
	if timeTitle == "" {
		timeTitle = "timestamp"
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, 0, len(ds.Columns)+1)
	header = append(header, timeTitle)
	for _, col := range ds.Columns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	headerRows := 1
	if hasUnits(ds.Units) {
		units := make([]interface{}, 0, len(ds.Units)+1)
		units = append(units, "")
		for _, u := range ds.Units {
			units = append(units, u)
		}
		if err := f.SetSheetRow(sheet, "A2", &units); err != nil {
			return fmt.Errorf("failed to write units row: %w", err)
		}
		headerRows = 2
	}

	times := ds.Grid.Times()
	for i, row := range ds.Rows {
		cells := make([]interface{}, 0, len(row)+1)
		cells = append(cells, formatInstant(times[i]))
		for _, cell := range row {
			if f64, ok := cell.Float(); ok {
				cells = append(cells, f64)
			} else {
				cells = append(cells, cell.String())
			}
		}
		start, err := excelize.CoordinatesToCellName(1, headerRows+i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i, err)
		}
		if err := f.SetSheetRow(sheet, start, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCol, _ := excelize.ColumnNumberToName(len(ds.Columns) + 1)
		_ = f.SetCellStyle(sheet, "A1", endCol+"1", style)
	}
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: headerRows,
		TopLeftCell: fmt.Sprintf("A%d", headerRows+1), ActivePane: "bottomLeft",
	})

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
