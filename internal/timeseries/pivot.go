package timeseries

import (
	"fmt"
	"sort"
)

// PivotLongToWide converts a long-format dataset (one row per
// timestamp/tag pair) into a wide one (one row per timestamp, one column
// per tag).
//
// Rows are grouped by exact instant equality. Within one group the last
// occurrence of a tag wins; this is an overwrite, not an aggregation.
// Output columns follow first-seen tag order across the whole input and
// output rows are sorted ascending by instant.
func PivotLongToWide(ds *Dataset, tagColumn, valueColumn string) (*Dataset, error) {
	tagIdx, ok := ds.ColumnIndex(tagColumn)
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w: tag column %q", ds.Name, ErrPivotAmbiguous, tagColumn)
	}
	valIdx, ok := ds.ColumnIndex(valueColumn)
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w: value column %q", ds.Name, ErrPivotAmbiguous, valueColumn)
	}
	if tagIdx == valIdx {
		return nil, fmt.Errorf("dataset %q: %w: tag and value are the same column %q", ds.Name, ErrPivotAmbiguous, tagColumn)
	}

	// First pass: collect tags in first-seen order.
	var tags []string
	tagSlot := make(map[string]int)
	for _, row := range ds.Rows {
		tag := row.Cells[tagIdx].String()
		if tag == "" {
			continue
		}
		if _, seen := tagSlot[tag]; !seen {
			tagSlot[tag] = len(tags)
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("dataset %q: %w: tag column %q holds no tags", ds.Name, ErrPivotAmbiguous, tagColumn)
	}

	out, err := NewDataset(ds.Name, ds.TimeColumn, tags)
	if err != nil {
		return nil, err
	}

	// Second pass: one output row per distinct instant, last tag wins.
	rowAt := make(map[int64]int)
	for _, row := range ds.Rows {
		tag := row.Cells[tagIdx].String()
		if tag == "" {
			continue
		}
		key := row.At.UnixNano()
		slot, exists := rowAt[key]
		if !exists {
			slot = len(out.Rows)
			rowAt[key] = slot
			out.Rows = append(out.Rows, Row{At: row.At, Cells: make([]Value, len(tags))})
		}
		out.Rows[slot].Cells[tagSlot[tag]] = row.Cells[valIdx]
	}

	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i].At.Before(out.Rows[j].At)
	})
	return out, nil
}
