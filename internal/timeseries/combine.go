package timeseries

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ColumnSpec selects one source column for the combined output.
type ColumnSpec struct {
	Name    string        // column name in the source
	Title   string        // output title; defaults to Name
	Unit    string        // unit label carried alongside the title
	Cleanup CleanupPolicy // missing-value handling before alignment
}

// LongLayout marks a source as long-format and names the columns the
// pivot needs. The tag/value pair may come from the user or from the
// advisory detector; the pivot itself only trusts what is set here.
type LongLayout struct {
	TagColumn   string
	ValueColumn string
}

// SourceDescriptor is everything the combiner needs to know about one
// source: its data, the selected columns, and the per-source policies.
type SourceDescriptor struct {
	Name       string
	Dataset    *Dataset
	Long       *LongLayout     // pivot before processing when set
	Columns    []ColumnSpec    // processed in this order
	Duplicates DuplicatePolicy // KeepAll skips resolution
	Alignment  AlignmentPolicy
}

// CombineRequest is the input to one combine invocation.
type CombineRequest struct {
	Grid    TimeGrid
	Sources []SourceDescriptor
	Workers int // parallel sources; values below 2 run sequentially
}

// CombinedDataset is the final wide table: one row per grid instant,
// one column per successfully processed (source, column) selection, each
// cell populated with a value or the explicit missing marker.
type CombinedDataset struct {
	Grid    TimeGrid
	Columns []string
	Units   []string
	Rows    [][]Value
}

// ProgressFunc receives a checkpoint after each completed (source, column)
// unit. It is called from worker goroutines and must be safe for
// concurrent use; a nil function disables reporting.
type ProgressFunc func(completed, total int, unit string)

// Combine runs the full pipeline: per source, resolve duplicates once and
// pivot long-format data, then per selected column run cleanup and
// alignment against the shared grid, and assemble the aligned columns into
// the output table.
//
// Failures are scoped to the smallest unit possible. A broken column (or a
// source that cannot be prepared at all) is dropped with a warning and the
// rest of the combine proceeds; only a complete absence of output columns
// is an error. Output column order is the first-seen order of the request.
//
// Each source works on its own clone of the input, so sources may be
// processed in parallel. Columns within a source stay sequential because
// DropRow cleanup narrows the shared working copy for the columns that
// follow it.
func Combine(ctx context.Context, req CombineRequest, progress ProgressFunc) (*CombinedDataset, []Warning, error) {
	totalUnits := 0
	for _, src := range req.Sources {
		totalUnits += len(src.Columns)
	}

	slots := make([]outputSlot, 0, totalUnits)
	slotBase := make([]int, len(req.Sources))
	for si, src := range req.Sources {
		slotBase[si] = len(slots)
		for _, col := range src.Columns {
			title := col.Title
			if title == "" {
				title = col.Name
			}
			slots = append(slots, outputSlot{title: title, unit: col.Unit})
		}
	}

	var (
		mu       sync.Mutex
		warnings []Warning
		done     atomic.Int64
	)
	warn := func(source, column string, err error) {
		mu.Lock()
		warnings = append(warnings, Warning{
			Source:  source,
			Column:  column,
			Code:    warningCode(err),
			Message: err.Error(),
		})
		mu.Unlock()
	}
	checkpoint := func(unit string) {
		n := int(done.Add(1))
		if progress != nil {
			progress(n, totalUnits, unit)
		}
	}

	workers := req.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for si := range req.Sources {
		si := si
		g.Go(func() error {
			src := req.Sources[si]
			base := slotBase[si]

			skipSource := func(err error) {
				warn(src.Name, "", err)
				for range src.Columns {
					checkpoint(src.Name)
				}
			}

			if err := gctx.Err(); err != nil {
				return err
			}
			if src.Dataset == nil {
				skipSource(fmt.Errorf("%w: source has no data", ErrMissingTimestampColumn))
				return nil
			}

			working := src.Dataset
			if src.Long != nil {
				pivoted, err := PivotLongToWide(working, src.Long.TagColumn, src.Long.ValueColumn)
				if err != nil {
					skipSource(err)
					return nil
				}
				working = pivoted
			}

			// ResolveDuplicates clones and sorts even under KeepAll, so
			// the per-source working copy is always our own.
			working, dupWarns, err := ResolveDuplicates(working, src.Duplicates)
			if err != nil {
				skipSource(err)
				return nil
			}
			if len(dupWarns) > 0 {
				mu.Lock()
				for _, dw := range dupWarns {
					dw.Source = src.Name
					warnings = append(warnings, dw)
				}
				mu.Unlock()
			}

			for ci, col := range src.Columns {
				if err := gctx.Err(); err != nil {
					return err
				}

				if err := processColumn(working, col, req.Grid, src.Alignment, &slots[base+ci]); err != nil {
					warn(src.Name, col.Name, err)
				}
				checkpoint(src.Name + "/" + col.Name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, warnings, err
	}

	// Assemble the table from the slots that survived.
	var columns, units []string
	var kept []int
	for i, s := range slots {
		if s.ok {
			kept = append(kept, i)
			columns = append(columns, s.title)
			units = append(units, s.unit)
		}
	}
	if len(kept) == 0 {
		return nil, warnings, fmt.Errorf("combine: %w", ErrNoSelectableColumns)
	}

	rows := make([][]Value, req.Grid.Len())
	for ri := range rows {
		row := make([]Value, len(kept))
		for ci, si := range kept {
			row[ci] = slots[si].values[ri]
		}
		rows[ri] = row
	}

	return &CombinedDataset{
		Grid:    req.Grid,
		Columns: columns,
		Units:   units,
		Rows:    rows,
	}, warnings, nil
}

// outputSlot holds one output column while the combine is in flight.
type outputSlot struct {
	title  string
	unit   string
	values []Value
	ok     bool
}

// processColumn runs cleanup then alignment for one selected column and
// stores the aligned values into its output slot.
func processColumn(working *Dataset, col ColumnSpec, grid TimeGrid, alignment AlignmentPolicy, out *outputSlot) error {
	if err := CleanColumn(working, col.Name, col.Cleanup); err != nil {
		return err
	}
	series, err := working.Series(col.Name)
	if err != nil {
		return err
	}
	values, err := AlignSeries(series, grid, alignment)
	if err != nil {
		return err
	}
	out.values = values
	out.ok = true
	return nil
}
