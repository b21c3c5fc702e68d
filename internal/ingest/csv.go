package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gridmerge/internal/timeseries"
)

// ReadCSV reads a CSV file into a dataset. The first row is the header.
// A UTF-8 BOM, if present, is stripped so exported files round-trip.
func ReadCSV(path string, opts Options) (*timeseries.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv %q is empty", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return datasetFromTable(name, rows[0], rows[1:], opts)
}
