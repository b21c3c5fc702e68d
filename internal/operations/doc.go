// Package operations runs combine jobs as an ordered step pipeline with
// observable state.
//
// A job walks through four steps: ingest the source files, stack the
// sources nominated for merging, combine everything onto the target time
// grid, and export the result. Each step reports progress through its
// StepState, and the Manager publishes every transition to an optional
// event sink so a UI can follow along without polling.
//
// The pipeline itself stays synchronous: one job is one call to
// Manager.Run, and the state it returns is complete when the call
// returns.
package operations
