package timeseries

import (
	"fmt"
)

// StackedDataset is the result of stacking several compatible sources
// into one logical source. Data retains the union of the constituents'
// columns; only the intersection is offered for selection, since a column
// missing from one constituent has holes no policy was chosen for.
type StackedDataset struct {
	*Dataset
	SelectableColumns []string
}

// StackDatasets concatenates the given sources, sorts the result
// ascending by instant, and resolves duplicates with the given policy,
// but only where the same instant occurs in more than one constituent.
// Instants local to a single constituent pass through untouched, including
// any duplicates that constituent already carried. Warnings from overlap
// resolution are passed through.
func StackDatasets(name string, policy DuplicatePolicy, sources ...*Dataset) (*StackedDataset, []Warning, error) {
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("stack %q: no sources", name)
	}

	// Union of columns in first-seen order.
	var columns []string
	seen := make(map[string]bool)
	for _, src := range sources {
		for _, col := range src.Columns {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}

	out, err := NewDataset(name, sources[0].TimeColumn, columns)
	if err != nil {
		return nil, nil, err
	}

	// Which constituents contribute each instant.
	firstOwner := make(map[int64]int)
	overlap := make(map[int64]bool)
	for si, src := range sources {
		for _, row := range src.Rows {
			key := row.At.UnixNano()
			if owner, ok := firstOwner[key]; ok {
				if owner != si {
					overlap[key] = true
				}
			} else {
				firstOwner[key] = si
			}
		}
	}

	// Concatenate, remapping each row onto the union schema.
	for _, src := range sources {
		remap := make([]int, len(src.Columns))
		for i, col := range src.Columns {
			remap[i], _ = out.ColumnIndex(col)
		}
		for _, row := range src.Rows {
			cells := make([]Value, len(columns))
			for i, v := range row.Cells {
				cells[remap[i]] = v
			}
			out.Rows = append(out.Rows, Row{At: row.At, Cells: cells})
		}
	}
	out.SortByTime()

	var warnings []Warning
	if policy != DuplicateKeepAll && len(overlap) > 0 {
		resolved, ws, err := resolveOverlapping(out, overlap, policy)
		if err != nil {
			return nil, nil, err
		}
		out = resolved
		warnings = ws
	}

	// Selectable columns: intersection across constituents, in the order
	// the first constituent declares them.
	selectable := make([]string, 0, len(sources[0].Columns))
	for _, col := range sources[0].Columns {
		inAll := true
		for _, src := range sources[1:] {
			if _, ok := src.ColumnIndex(col); !ok {
				inAll = false
				break
			}
		}
		if inAll {
			selectable = append(selectable, col)
		}
	}

	return &StackedDataset{Dataset: out, SelectableColumns: selectable}, warnings, nil
}

// resolveOverlapping runs duplicate resolution on the subset of rows whose
// instants overlap across constituents and splices the collapsed rows back
// in time order with the untouched remainder.
func resolveOverlapping(ds *Dataset, overlap map[int64]bool, policy DuplicatePolicy) (*Dataset, []Warning, error) {
	shared, _ := NewDataset(ds.Name, ds.TimeColumn, ds.Columns)
	var keep []Row
	for _, row := range ds.Rows {
		if overlap[row.At.UnixNano()] {
			shared.Rows = append(shared.Rows, row)
		} else {
			keep = append(keep, row)
		}
	}

	collapsed, warnings, err := ResolveDuplicates(shared, policy)
	if err != nil {
		return nil, nil, err
	}

	merged, _ := NewDataset(ds.Name, ds.TimeColumn, ds.Columns)
	merged.Rows = append(append(merged.Rows, keep...), collapsed.Rows...)
	merged.SortByTime()
	return merged, warnings, nil
}
