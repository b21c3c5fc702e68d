// Package exporter renders a combined dataset into persisted report files.
//
// Two writers are provided:
//
// CSVWriter: plain CSV with a UTF-8 BOM so spreadsheets recognize the
// encoding, a header row of column titles and an optional units row.
//
// ExcelWriter: an xlsx workbook with a styled, frozen header and a units
// row, written with excelize.
//
// The exporter knows nothing about how the dataset was produced; it
// consumes the ordered columns, the parallel units list, and the ordered
// rows and writes them out verbatim.
package exporter
