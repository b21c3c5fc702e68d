package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gridmerge/internal/timeseries"
)

// CSVWriter exports a combined dataset as CSV.
type CSVWriter struct {
	// TimeColumnTitle heads the timestamp column; defaults to "timestamp".
	TimeColumnTitle string

	// IncludeUnitsRow writes a second header row with unit labels when
	// any column carries one.
	IncludeUnitsRow bool

	// BOMPrefix prepends the UTF-8 BOM so Excel detects the encoding.
	BOMPrefix bool
}

// NewCSVWriter returns a writer with the report defaults.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{
		TimeColumnTitle: "timestamp",
		IncludeUnitsRow: true,
		BOMPrefix:       true,
	}
}

// Write renders the dataset to the given path, creating directories as
// needed.
func (w *CSVWriter) Write(path string, ds *timeseries.CombinedDataset) error {
	slog.Info("writing combined csv",
		slog.String("path", path),
		slog.Int("columns", len(ds.Columns)),
		slog.Int("rows", len(ds.Rows)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if w.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	timeTitle := w.TimeColumnTitle
	if timeTitle == "" {
		timeTitle = "timestamp"
	}
	if err := writer.Write(append([]string{timeTitle}, ds.Columns...)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if w.IncludeUnitsRow && hasUnits(ds.Units) {
		if err := writer.Write(append([]string{""}, ds.Units...)); err != nil {
			return fmt.Errorf("failed to write units row: %w", err)
		}
	}

	times := ds.Grid.Times()
	for i, row := range ds.Rows {
		record := make([]string, 0, len(row)+1)
		record = append(record, formatInstant(times[i]))
		for _, cell := range row {
			record = append(record, cell.String())
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func hasUnits(units []string) bool {
	for _, u := range units {
		if u != "" {
			return true
		}
	}
	return false
}
