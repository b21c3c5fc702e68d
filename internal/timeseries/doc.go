// Package timeseries implements the grid-merge transformation pipeline.
// It merges several irregularly-sampled tabular sources onto one common
// timestamp grid and produces a single wide table suitable for reporting.
//
// # Architecture
//
// The package is organized around small, composable stages:
//
// 1. TimeGrid: the fixed-interval target timestamp sequence
// 2. ResolveDuplicates: collapses rows sharing an instant per policy
// 3. PivotLongToWide: converts long-format sources to wide layout
// 4. CleanColumn: fills or drops missing entries within one column
// 5. AlignSeries: resamples a cleaned column onto the target grid
// 6. StackDatasets: concatenates compatible sources before the pipeline
// 7. Combine: the orchestrator that assembles the final wide table
//
// # Usage
//
// Basic combine example:
//
//	grid, _ := timeseries.NewTimeGrid(start, end, 5*time.Minute)
//	result, warnings, err := timeseries.Combine(ctx, timeseries.CombineRequest{
//	    Grid:    grid,
//	    Sources: sources,
//	})
//
// All stages operate on transient working copies; the input datasets are
// never mutated and the returned CombinedDataset is immutable once built.
package timeseries
