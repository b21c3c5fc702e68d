package timeseries

import "errors"

// Sentinel errors for the pipeline. Callers classify failures with
// errors.Is; warnings carry the matching code string for transport.
var (
	// ErrInvalidInterval is returned when a grid cannot be built even
	// after the default-interval fallback.
	ErrInvalidInterval = errors.New("invalid grid interval")

	// ErrMissingColumn is returned when a configured column is absent
	// from a source's schema.
	ErrMissingColumn = errors.New("column not found")

	// ErrMissingTimestampColumn is returned when a source has no usable
	// timestamp column.
	ErrMissingTimestampColumn = errors.New("timestamp column not found")

	// ErrNoSelectableColumns is returned when a combine produces no
	// output columns at all.
	ErrNoSelectableColumns = errors.New("no selectable columns")

	// ErrPivotAmbiguous is returned when the tag or value column of a
	// long-format source cannot be resolved.
	ErrPivotAmbiguous = errors.New("pivot tag or value column ambiguous")

	// ErrUnparsableNumeric marks cells that could not be aggregated
	// numerically. It is non-fatal: aggregation falls back to the raw
	// first or last value.
	ErrUnparsableNumeric = errors.New("value not parsable as number")
)

// Warning records a non-fatal, per-unit degradation. A combine returns the
// partial result together with the warnings it accumulated.
type Warning struct {
	Source  string `json:"source,omitempty"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func warningCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInterval):
		return "InvalidInterval"
	case errors.Is(err, ErrMissingTimestampColumn):
		return "MissingTimestampColumn"
	case errors.Is(err, ErrNoSelectableColumns):
		return "NoSelectableColumns"
	case errors.Is(err, ErrPivotAmbiguous):
		return "PivotAmbiguous"
	case errors.Is(err, ErrUnparsableNumeric):
		return "UnparsableNumeric"
	case errors.Is(err, ErrMissingColumn):
		return "MissingColumn"
	default:
		return "Internal"
	}
}
