package timeseries

import (
	"fmt"
	"sort"
)

// DuplicatePolicy selects how rows sharing an instant are collapsed.
type DuplicatePolicy string

const (
	DuplicateAverage   DuplicatePolicy = "average"
	DuplicateMaximum   DuplicatePolicy = "maximum"
	DuplicateMinimum   DuplicatePolicy = "minimum"
	DuplicateKeepFirst DuplicatePolicy = "keep_first"
	DuplicateKeepLast  DuplicatePolicy = "keep_last"
	DuplicateKeepAll   DuplicatePolicy = "keep_all"
)

// ParseDuplicatePolicy validates a policy string.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case DuplicateAverage, DuplicateMaximum, DuplicateMinimum,
		DuplicateKeepFirst, DuplicateKeepLast, DuplicateKeepAll:
		return DuplicatePolicy(s), nil
	case "":
		return DuplicateKeepAll, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q", s)
}

// ResolveDuplicates collapses rows that share an instant into one row per
// the policy and returns a new dataset sorted ascending by instant.
//
// Grouping compares parsed instants, not their textual representation, so
// two spellings of the same moment land in the same group. For groups
// larger than one, each column is aggregated over the subset of cells that
// parse as numbers; when no cell parses, the first row's raw cell is taken
// and an UnparsableNumeric warning is recorded for the column. KeepFirst
// and KeepLast take the first or last row's raw cell without warning.
// KeepAll performs no resolution and only sorts.
func ResolveDuplicates(ds *Dataset, policy DuplicatePolicy) (*Dataset, []Warning, error) {
	out := ds.Clone()
	out.SortByTime()
	if policy == DuplicateKeepAll || len(out.Rows) < 2 {
		return out, nil, nil
	}

	fellBack := make(map[int]bool)
	resolved := make([]Row, 0, len(out.Rows))
	for start := 0; start < len(out.Rows); {
		end := start + 1
		for end < len(out.Rows) && out.Rows[end].At.Equal(out.Rows[start].At) {
			end++
		}
		group := out.Rows[start:end]
		if len(group) == 1 {
			resolved = append(resolved, group[0])
		} else {
			resolved = append(resolved, collapseGroup(group, len(out.Columns), policy, fellBack))
		}
		start = end
	}
	out.Rows = resolved

	var warnings []Warning
	for ci, name := range out.Columns {
		if fellBack[ci] {
			warnings = append(warnings, Warning{
				Column:  name,
				Code:    warningCode(ErrUnparsableNumeric),
				Message: fmt.Sprintf("column %q: %v; kept the first raw value", name, ErrUnparsableNumeric),
			})
		}
	}
	return out, warnings, nil
}

// collapseGroup merges rows sharing one instant into a single row and
// marks in fellBack the columns where aggregation found nothing numeric.
func collapseGroup(group []Row, width int, policy DuplicatePolicy, fellBack map[int]bool) Row {
	merged := Row{At: group[0].At, Cells: make([]Value, width)}
	for col := 0; col < width; col++ {
		cell, fallback := collapseCells(group, col, policy)
		merged.Cells[col] = cell
		if fallback {
			fellBack[col] = true
		}
	}
	return merged
}

// collapseCells merges one column of a duplicate group. The second result
// is true when a numeric policy had no numeric cell to aggregate.
func collapseCells(group []Row, col int, policy DuplicatePolicy) (Value, bool) {
	switch policy {
	case DuplicateKeepFirst:
		return group[0].Cells[col], false
	case DuplicateKeepLast:
		return group[len(group)-1].Cells[col], false
	}

	nums := make([]float64, 0, len(group))
	for _, row := range group {
		if f, ok := row.Cells[col].Float(); ok {
			nums = append(nums, f)
		}
	}
	// Nothing numeric to aggregate: fall back to the first raw cell.
	if len(nums) == 0 {
		return group[0].Cells[col], true
	}

	switch policy {
	case DuplicateMaximum:
		max := nums[0]
		for _, f := range nums[1:] {
			if f > max {
				max = f
			}
		}
		return Number(max), false
	case DuplicateMinimum:
		min := nums[0]
		for _, f := range nums[1:] {
			if f < min {
				min = f
			}
		}
		return Number(min), false
	default: // DuplicateAverage
		var sum float64
		for _, f := range nums {
			sum += f
		}
		return Number(sum / float64(len(nums))), false
	}
}

// ResolveDuplicatePoints collapses series points sharing an instant; it is
// the single-column counterpart of ResolveDuplicates. The input slice is
// sorted and compacted in place.
func ResolveDuplicatePoints(pts []Point, policy DuplicatePolicy) []Point {
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].At.Before(pts[j].At) })
	if policy == DuplicateKeepAll || len(pts) < 2 {
		return pts
	}
	out := pts[:0]
	for start := 0; start < len(pts); {
		end := start + 1
		for end < len(pts) && pts[end].At.Equal(pts[start].At) {
			end++
		}
		group := pts[start:end]
		if len(group) == 1 {
			out = append(out, group[0])
		} else {
			rows := make([]Row, len(group))
			for i, p := range group {
				rows[i] = Row{At: p.At, Cells: []Value{p.Val}}
			}
			val, _ := collapseCells(rows, 0, policy)
			out = append(out, Point{At: group[0].At, Val: val})
		}
		start = end
	}
	return out
}
