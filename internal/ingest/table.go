package ingest

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"gridmerge/internal/timeseries"
)

// Options controls how a raw table becomes a dataset.
type Options struct {
	// TimeColumn names the timestamp column. Empty means the first
	// column of the header.
	TimeColumn string

	// TimeLayout is an optional Go reference layout for timestamps.
	// When empty, timestamps are parsed with dateparse detection.
	TimeLayout string
}

// datasetFromTable converts a header row plus records into a dataset.
// Rows whose timestamp cannot be parsed are skipped and counted; a source
// where every row fails is unusable.
func datasetFromTable(name string, header []string, records [][]string, opts Options) (*timeseries.Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("source %q: empty header", name)
	}

	timeCol := opts.TimeColumn
	if timeCol == "" {
		timeCol = strings.TrimSpace(header[0])
	}

	timeIdx := -1
	var columns []string
	var cellIdx []int
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == timeCol && timeIdx < 0 {
			timeIdx = i
			continue
		}
		if col == "" {
			col = fmt.Sprintf("column_%d", i+1)
		}
		columns = append(columns, col)
		cellIdx = append(cellIdx, i)
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("source %q: %w: %q", name, timeseries.ErrMissingTimestampColumn, timeCol)
	}

	ds, err := timeseries.NewDataset(name, timeCol, columns)
	if err != nil {
		return nil, err
	}

	skipped := 0
	for _, record := range records {
		if isBlankRecord(record) {
			continue
		}
		at, err := parseInstant(cellAt(record, timeIdx), opts.TimeLayout)
		if err != nil {
			skipped++
			continue
		}
		cells := make([]timeseries.Value, len(columns))
		for ci, ri := range cellIdx {
			cells[ci] = parseCell(cellAt(record, ri))
		}
		if err := ds.AppendRow(at, cells); err != nil {
			return nil, err
		}
	}

	if skipped > 0 {
		slog.Warn("skipped rows with unparsable timestamps",
			slog.String("source", name),
			slog.Int("skipped", skipped),
			slog.Int("kept", len(ds.Rows)))
	}
	if len(ds.Rows) == 0 && len(records) > 0 {
		return nil, fmt.Errorf("source %q: %w: no row has a parsable timestamp in column %q",
			name, timeseries.ErrMissingTimestampColumn, timeCol)
	}
	return ds, nil
}

// parseInstant parses one timestamp cell. An explicit layout takes
// precedence; otherwise dateparse detects the format.
func parseInstant(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if layout != "" {
		return time.Parse(layout, s)
	}
	return dateparse.ParseAny(s)
}

// parseCell converts one raw cell into a Value. Numeric-looking text
// becomes a number; everything else stays text; blanks are missing.
func parseCell(s string) timeseries.Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return timeseries.Missing()
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64); err == nil {
		return timeseries.Number(f)
	}
	return timeseries.Text(trimmed)
}

func cellAt(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
