package timeseries

import (
	"fmt"
	"time"
)

// CleanupPolicy selects how missing entries in one column are handled
// before alignment.
type CleanupPolicy string

const (
	CleanupNearestFill       CleanupPolicy = "nearest_fill"
	CleanupLinearInterpolate CleanupPolicy = "linear_interpolate"
	CleanupDropRow           CleanupPolicy = "drop_row"
	CleanupZeroFill          CleanupPolicy = "zero_fill"
)

// ParseCleanupPolicy validates a policy string. An empty string means
// NearestFill, the least surprising default for reporting.
func ParseCleanupPolicy(s string) (CleanupPolicy, error) {
	switch CleanupPolicy(s) {
	case CleanupNearestFill, CleanupLinearInterpolate, CleanupDropRow, CleanupZeroFill:
		return CleanupPolicy(s), nil
	case "":
		return CleanupNearestFill, nil
	}
	return "", fmt.Errorf("unknown cleanup policy %q", s)
}

// CleanColumn applies a cleanup policy to one column of the working copy.
// The dataset must already be duplicate-resolved and sorted ascending.
//
// DropRow removes whole rows, so applying it to one column narrows what a
// later-processed column sees. The combiner runs columns in configuration
// order over a shared working copy on purpose; that ordering is part of
// the contract and is pinned by tests.
func CleanColumn(ds *Dataset, column string, policy CleanupPolicy) error {
	idx, ok := ds.ColumnIndex(column)
	if !ok {
		return fmt.Errorf("dataset %q: %w: %q", ds.Name, ErrMissingColumn, column)
	}

	switch policy {
	case CleanupNearestFill:
		nearestFill(ds.Rows, idx)
	case CleanupLinearInterpolate:
		interpolateColumn(ds.Rows, idx)
	case CleanupDropRow:
		kept := ds.Rows[:0]
		for _, row := range ds.Rows {
			if !row.Cells[idx].IsMissing() {
				kept = append(kept, row)
			}
		}
		ds.Rows = kept
	case CleanupZeroFill:
		for _, row := range ds.Rows {
			if row.Cells[idx].IsMissing() {
				row.Cells[idx] = Number(0)
			}
		}
	default:
		return fmt.Errorf("unknown cleanup policy %q", policy)
	}
	return nil
}

// nearestFill propagates the nearest preceding valid value forward, then
// fills a still-missing prefix from the nearest following valid value.
// An interior gap always takes the preceding value, even when the
// following neighbor is closer in time.
func nearestFill(rows []Row, idx int) {
	var last Value
	haveLast := false
	for _, row := range rows {
		if row.Cells[idx].IsMissing() {
			if haveLast {
				row.Cells[idx] = last
			}
		} else {
			last = row.Cells[idx]
			haveLast = true
		}
	}

	// Backward pass: only the leading run can still be missing.
	haveLast = false
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Cells[idx].IsMissing() {
			if haveLast {
				rows[i].Cells[idx] = last
			}
		} else {
			last = rows[i].Cells[idx]
			haveLast = true
		}
	}
}

// interpolateColumn fills each missing entry from its nearest valid
// neighbors by elapsed-time ratio. With only one neighbor the entry takes
// that neighbor's value; with none it stays missing.
func interpolateColumn(rows []Row, idx int) {
	for i, row := range rows {
		if !row.Cells[idx].IsMissing() {
			continue
		}

		before, after := -1, -1
		for j := i - 1; j >= 0; j-- {
			if !rows[j].Cells[idx].IsMissing() {
				before = j
				break
			}
		}
		for j := i + 1; j < len(rows); j++ {
			if !rows[j].Cells[idx].IsMissing() {
				after = j
				break
			}
		}

		switch {
		case before >= 0 && after >= 0:
			row.Cells[idx] = interpolateAt(row.At,
				rows[before].At, rows[before].Cells[idx],
				rows[after].At, rows[after].Cells[idx])
		case before >= 0:
			row.Cells[idx] = rows[before].Cells[idx]
		case after >= 0:
			row.Cells[idx] = rows[after].Cells[idx]
		}
	}
}

// interpolateAt linearly interpolates between two samples. Non-numeric or
// coincident samples degrade to the earlier value.
func interpolateAt(at, t0 time.Time, v0 Value, t1 time.Time, v1 Value) Value {
	f0, ok0 := v0.Float()
	f1, ok1 := v1.Float()
	if !ok0 || !ok1 || t1.Equal(t0) {
		return v0
	}
	ratio := float64(at.Sub(t0)) / float64(t1.Sub(t0))
	return Number(f0 + (f1-f0)*ratio)
}
