package operations

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gridmerge/internal/exporter"
	"gridmerge/internal/ingest"
	"gridmerge/internal/timeseries"
)

// Step IDs in pipeline order.
const (
	StepIDIngest  = "ingest"
	StepIDStack   = "stack"
	StepIDCombine = "combine"
	StepIDExport  = "export"
)

// IngestStep reads every source file into a dataset. Sources without a
// path are produced later by the stack step and are skipped here.
type IngestStep struct{}

func (IngestStep) ID() string   { return StepIDIngest }
func (IngestStep) Name() string { return "Ingest sources" }

func (IngestStep) Execute(ctx context.Context, state *OperationState) error {
	step := state.StepByID(StepIDIngest)
	for i, src := range state.Job.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if src.Path == "" {
			continue
		}
		step.UpdateProgress(float64(i)/float64(len(state.Job.Sources))*100,
			fmt.Sprintf("reading %s", src.Name))

		opts := ingest.Options{TimeColumn: src.TimeColumn, TimeLayout: src.TimeLayout}
		var (
			ds  *timeseries.Dataset
			err error
		)
		switch strings.ToLower(filepath.Ext(src.Path)) {
		case ".xlsx", ".xlsm":
			ds, err = ingest.ReadExcel(src.Path, src.Sheet, opts)
		default:
			ds, err = ingest.ReadCSV(src.Path, opts)
		}
		if err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
		ds.Name = src.Name
		state.Datasets[src.Name] = ds
	}
	return nil
}

// StackStep merges the sources each StackSpec nominates into one logical
// source registered under the stack's name. Constituents stay available
// under their own names until the combine step resolves references.
type StackStep struct{}

func (StackStep) ID() string   { return StepIDStack }
func (StackStep) Name() string { return "Stack sources" }

func (StackStep) Execute(ctx context.Context, state *OperationState) error {
	step := state.StepByID(StepIDStack)
	if len(state.Job.Stacks) == 0 {
		step.Skip("no stacks configured")
		return nil
	}

	for i, spec := range state.Job.Stacks {
		if err := ctx.Err(); err != nil {
			return err
		}
		step.UpdateProgress(float64(i)/float64(len(state.Job.Stacks))*100,
			fmt.Sprintf("stacking %s", spec.Name))

		constituents := make([]*timeseries.Dataset, 0, len(spec.Sources))
		for _, name := range spec.Sources {
			ds, ok := state.Datasets[name]
			if !ok {
				return fmt.Errorf("stack %q: unknown source %q", spec.Name, name)
			}
			constituents = append(constituents, ds)
		}

		// Validated in JobSpec.Validate.
		policy, _ := timeseries.ParseDuplicatePolicy(spec.Overlap)
		stacked, stackWarns, err := timeseries.StackDatasets(spec.Name, policy, constituents...)
		if err != nil {
			return fmt.Errorf("stack %q: %w", spec.Name, err)
		}
		for _, sw := range stackWarns {
			sw.Source = spec.Name
			state.AddWarnings(sw)
		}

		selectable := make(map[string]bool, len(stacked.SelectableColumns))
		for _, col := range stacked.SelectableColumns {
			selectable[col] = true
		}
		for _, src := range state.Job.Sources {
			if src.Name != spec.Name {
				continue
			}
			for _, col := range src.Columns {
				if !selectable[col.Name] {
					state.AddWarnings(timeseries.Warning{
						Source:  spec.Name,
						Column:  col.Name,
						Code:    "MissingColumn",
						Message: fmt.Sprintf("column %q is not present in every stacked constituent", col.Name),
					})
				}
			}
		}

		state.Datasets[spec.Name] = stacked.Dataset
		state.Selectable[spec.Name] = stacked.SelectableColumns
	}
	return nil
}

// CombineStep runs the core pipeline against the target grid.
type CombineStep struct{}

func (CombineStep) ID() string   { return StepIDCombine }
func (CombineStep) Name() string { return "Combine onto grid" }

func (CombineStep) Execute(ctx context.Context, state *OperationState) error {
	step := state.StepByID(StepIDCombine)

	start, end, err := state.Job.Grid.Window()
	if err != nil {
		return err
	}
	grid, warn, err := timeseries.NewTimeGridFromSpec(start, end, state.Job.Grid.Interval)
	if err != nil {
		return err
	}
	if warn != nil {
		state.AddWarnings(*warn)
	}
	state.Grid = grid

	// Stack constituents were merged into their stack's dataset; only
	// the merged source carries them into the output.
	consumed := make(map[string]bool)
	for _, stack := range state.Job.Stacks {
		for _, name := range stack.Sources {
			consumed[name] = true
		}
	}

	req := timeseries.CombineRequest{Grid: grid, Workers: state.Job.Workers}
	for _, src := range state.Job.Sources {
		if consumed[src.Name] {
			continue
		}
		ds := state.Datasets[src.Name]
		// Policy strings were validated up front.
		duplicates, _ := timeseries.ParseDuplicatePolicy(src.Duplicates)
		alignment, _ := timeseries.ParseAlignmentPolicy(src.Alignment)

		desc := timeseries.SourceDescriptor{
			Name:       src.Name,
			Dataset:    ds,
			Duplicates: duplicates,
			Alignment:  alignment,
		}
		if src.Long != nil {
			desc.Long = &timeseries.LongLayout{
				TagColumn:   src.Long.TagColumn,
				ValueColumn: src.Long.ValueColumn,
			}
		}
		// A stacked source may only select columns from its constituents'
		// intersection; the stack step warned about the rest.
		var selectable map[string]bool
		if cols, ok := state.Selectable[src.Name]; ok {
			selectable = make(map[string]bool, len(cols))
			for _, c := range cols {
				selectable[c] = true
			}
		}
		for _, col := range src.Columns {
			if selectable != nil && !selectable[col.Name] {
				continue
			}
			cleanup, _ := timeseries.ParseCleanupPolicy(col.Cleanup)
			desc.Columns = append(desc.Columns, timeseries.ColumnSpec{
				Name:    col.Name,
				Title:   col.Title,
				Unit:    col.Unit,
				Cleanup: cleanup,
			})
		}
		req.Sources = append(req.Sources, desc)
	}

	totalUnits := 0
	for _, src := range req.Sources {
		totalUnits += len(src.Columns)
	}
	tracker := NewProgressTracker(StepIDCombine, totalUnits)
	combined, warnings, err := timeseries.Combine(ctx, req, func(completed, total int, unit string) {
		tracker.Update(completed, unit)
		_, _, pct, _ := tracker.Progress()
		step.UpdateProgress(pct, fmt.Sprintf("%s (eta %s)", unit, tracker.ETA()))
	})
	state.AddWarnings(warnings...)
	if err != nil {
		return err
	}
	state.Combined = combined
	return nil
}

// ExportStep writes the combined dataset to the configured files.
type ExportStep struct{}

func (ExportStep) ID() string   { return StepIDExport }
func (ExportStep) Name() string { return "Export report" }

func (ExportStep) Execute(ctx context.Context, state *OperationState) error {
	step := state.StepByID(StepIDExport)
	out := state.Job.Output
	if out.CSVPath == "" && out.ExcelPath == "" {
		step.Skip("no output files configured")
		return nil
	}
	if state.Combined == nil {
		return fmt.Errorf("nothing to export: combine produced no dataset")
	}

	if out.CSVPath != "" {
		step.UpdateProgress(25, "writing csv")
		if err := exporter.NewCSVWriter().Write(out.CSVPath, state.Combined); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if out.ExcelPath != "" {
		step.UpdateProgress(75, "writing workbook")
		if err := exporter.NewExcelWriter().Write(out.ExcelPath, state.Combined); err != nil {
			return err
		}
	}
	return nil
}

// DefaultSteps returns the pipeline in execution order.
func DefaultSteps() []Step {
	return []Step{IngestStep{}, StackStep{}, CombineStep{}, ExportStep{}}
}
