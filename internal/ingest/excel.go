package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gridmerge/internal/timeseries"
)

// ReadExcel reads one sheet of an xlsx workbook into a dataset. An empty
// sheet name selects the first sheet that actually carries a table: a
// header row followed by at least one record.
func ReadExcel(path, sheet string, opts Options) (*timeseries.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var candidates []string
	if sheet != "" {
		candidates = []string{sheet}
	} else {
		candidates = f.GetSheetList()
	}

	var lastErr error
	for _, name := range candidates {
		rows, err := f.GetRows(name)
		if err != nil {
			lastErr = err
			continue
		}
		header, records := splitHeader(rows)
		if header == nil {
			lastErr = fmt.Errorf("sheet %q has no table", name)
			continue
		}

		sourceName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		ds, err := datasetFromTable(sourceName, header, records, opts)
		if err != nil {
			lastErr = err
			continue
		}
		return ds, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("workbook %q: %w", path, lastErr)
	}
	return nil, fmt.Errorf("workbook %q has no sheets", path)
}

// splitHeader locates the first non-blank row as header and returns the
// rows after it as records.
func splitHeader(rows [][]string) ([]string, [][]string) {
	for i, row := range rows {
		if !isBlankRecord(row) {
			if i+1 >= len(rows) {
				return nil, nil
			}
			return row, rows[i+1:]
		}
	}
	return nil, nil
}
