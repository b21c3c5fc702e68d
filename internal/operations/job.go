package operations

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"

	"gridmerge/internal/timeseries"
)

// JobSpec describes one combine job end to end: where the sources live,
// which columns to carry into the report under which titles, the target
// grid, and where to write the output.
type JobSpec struct {
	Grid    GridSpec     `json:"grid" yaml:"grid" validate:"required"`
	Sources []SourceSpec `json:"sources" yaml:"sources" validate:"required,min=1,dive"`
	Stacks  []StackSpec  `json:"stacks,omitempty" yaml:"stacks" validate:"dive"`
	Output  OutputSpec   `json:"output,omitempty" yaml:"output"`
	Workers int          `json:"workers,omitempty" yaml:"workers" validate:"gte=0"`
}

// GridSpec describes the target time grid. Start and End accept any
// common timestamp layout.
type GridSpec struct {
	Start    string `json:"start" yaml:"start" validate:"required"`
	End      string `json:"end" yaml:"end" validate:"required"`
	Interval string `json:"interval" yaml:"interval" validate:"required"`
}

// Window parses the grid boundaries.
func (g GridSpec) Window() (start, end time.Time, err error) {
	start, err = dateparse.ParseAny(g.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("grid start %q: %w", g.Start, err)
	}
	end, err = dateparse.ParseAny(g.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("grid end %q: %w", g.End, err)
	}
	return start, end, nil
}

// SourceSpec describes one input and the policies applied to it. Path
// names the file to read; a source whose name matches a StackSpec is
// produced by stacking instead and carries no path of its own.
type SourceSpec struct {
	Name       string       `json:"name" yaml:"name" validate:"required"`
	Path       string       `json:"path,omitempty" yaml:"path"`
	Sheet      string       `json:"sheet,omitempty" yaml:"sheet"`
	TimeColumn string       `json:"time_column,omitempty" yaml:"time_column"`
	TimeLayout string       `json:"time_layout,omitempty" yaml:"time_layout"`
	Long       *LongSpec    `json:"long,omitempty" yaml:"long"`
	Duplicates string       `json:"duplicates,omitempty" yaml:"duplicates"`
	Alignment  string       `json:"alignment,omitempty" yaml:"alignment"`
	Columns    []ColumnSpec `json:"columns,omitempty" yaml:"columns" validate:"dive"`
}

// LongSpec names the pivot columns of a long-format source.
type LongSpec struct {
	TagColumn   string `json:"tag_column" yaml:"tag_column" validate:"required"`
	ValueColumn string `json:"value_column" yaml:"value_column" validate:"required"`
}

// ColumnSpec selects one source column for the output.
type ColumnSpec struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	Title   string `json:"title,omitempty" yaml:"title"`
	Unit    string `json:"unit,omitempty" yaml:"unit"`
	Cleanup string `json:"cleanup,omitempty" yaml:"cleanup"`
}

// StackSpec merges several ingested sources into one logical source
// before combining. The merged source replaces its constituents under
// the stack's name.
type StackSpec struct {
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Sources []string `json:"sources" yaml:"sources" validate:"required,min=2"`
	Overlap string   `json:"overlap,omitempty" yaml:"overlap"`
}

// OutputSpec names the files to write. Both are optional; a caller that
// only wants the in-memory result leaves them empty.
type OutputSpec struct {
	CSVPath   string `json:"csv_path,omitempty" yaml:"csv_path"`
	ExcelPath string `json:"excel_path,omitempty" yaml:"excel_path"`
}

var validate = validator.New()

// Validate checks the structural shape of the spec and that every policy
// string parses. Policy defaults are applied by the steps, not here.
func (s *JobSpec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid job spec: %w", err)
	}
	if _, _, err := s.Grid.Window(); err != nil {
		return err
	}
	for _, src := range s.Sources {
		if _, err := timeseries.ParseDuplicatePolicy(src.Duplicates); err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
		if _, err := timeseries.ParseAlignmentPolicy(src.Alignment); err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
		for _, col := range src.Columns {
			if _, err := timeseries.ParseCleanupPolicy(col.Cleanup); err != nil {
				return fmt.Errorf("source %q column %q: %w", src.Name, col.Name, err)
			}
		}
	}
	bySource := make(map[string]SourceSpec, len(s.Sources))
	for _, src := range s.Sources {
		bySource[src.Name] = src
	}
	stacked := make(map[string]bool, len(s.Stacks))
	for _, stack := range s.Stacks {
		if _, err := timeseries.ParseDuplicatePolicy(stack.Overlap); err != nil {
			return fmt.Errorf("stack %q: %w", stack.Name, err)
		}
		if _, ok := bySource[stack.Name]; !ok {
			return fmt.Errorf("stack %q has no matching source entry", stack.Name)
		}
		stacked[stack.Name] = true
		for _, name := range stack.Sources {
			constituent, ok := bySource[name]
			if !ok {
				return fmt.Errorf("stack %q references unknown source %q", stack.Name, name)
			}
			if constituent.Path == "" {
				return fmt.Errorf("stack %q constituent %q has no path", stack.Name, name)
			}
		}
	}
	consumed := make(map[string]bool)
	for _, stack := range s.Stacks {
		for _, name := range stack.Sources {
			consumed[name] = true
		}
	}
	for _, src := range s.Sources {
		if src.Path == "" && !stacked[src.Name] {
			return fmt.Errorf("source %q has no path and is not produced by a stack", src.Name)
		}
		if src.Path != "" && stacked[src.Name] {
			return fmt.Errorf("source %q is produced by a stack and cannot also name a file", src.Name)
		}
		// Constituents are folded into their stack; only sources that
		// reach the combine step must select columns.
		if !consumed[src.Name] && len(src.Columns) == 0 {
			return fmt.Errorf("source %q selects no columns", src.Name)
		}
	}
	return nil
}
