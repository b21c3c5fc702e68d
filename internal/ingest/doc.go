// Package ingest reads tabular source files into timeseries datasets.
//
// It supports CSV and Excel inputs. A reader produces an ordered column
// list, an ordered record sequence, and a designated timestamp column;
// everything downstream of ingestion operates on that schema alone.
//
// Timestamp parsing accepts an explicit layout or, by default, the
// flexible dateparse detection, so sources with mixed spellings of the
// same instant still land on one parsed time line.
//
// The long-format detector is advisory only: it suggests a tag/value
// column pair for pivoting but the pipeline never acts on a suggestion
// the caller did not confirm.
package ingest
