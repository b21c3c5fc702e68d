package timeseries

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValueKind discriminates the scalar types a cell can hold.
type ValueKind uint8

const (
	KindMissing ValueKind = iota
	KindNumber
	KindText
)

// Value is a single cell: a number, a piece of text, or an explicit missing
// marker. The zero Value is missing.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Missing returns the explicit missing marker.
func Missing() Value {
	return Value{}
}

// Number returns a numeric cell value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text returns a textual cell value. Empty or whitespace-only text is
// treated as missing so that blank spreadsheet cells round-trip correctly.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: KindText, text: s}
}

// Kind returns the discriminator for this value.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool {
	return v.kind == KindMissing
}

// Float returns the cell as a number. Textual cells are parsed with
// strconv so that numeric columns read from CSV still aggregate; the
// second return is false when no numeric reading exists.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(v.text, ",", "")), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String renders the cell for display and export. Missing cells render as
// the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same scalar.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	default:
		return true
	}
}

// Row is one record: an instant plus one cell per dataset column.
type Row struct {
	At    time.Time
	Cells []Value
}

// Dataset is an ordered tabular source with an explicit schema: a fixed
// column list and fixed-width rows. The timestamp is carried on the row
// itself rather than as a cell, which makes missing-column and width
// mismatches construction-time errors instead of silent propagation.
type Dataset struct {
	Name       string
	TimeColumn string
	Columns    []string
	Rows       []Row

	index map[string]int
}

// NewDataset creates an empty dataset with the given schema. Column names
// must be unique and non-empty.
func NewDataset(name, timeColumn string, columns []string) (*Dataset, error) {
	ds := &Dataset{
		Name:       name,
		TimeColumn: timeColumn,
		Columns:    append([]string(nil), columns...),
		index:      make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("dataset %q: column %d has empty name", name, i)
		}
		if _, dup := ds.index[col]; dup {
			return nil, fmt.Errorf("dataset %q: duplicate column %q", name, col)
		}
		ds.index[col] = i
	}
	return ds, nil
}

// AppendRow adds one record. The cell slice must match the column count.
func (d *Dataset) AppendRow(at time.Time, cells []Value) error {
	if len(cells) != len(d.Columns) {
		return fmt.Errorf("dataset %q: row has %d cells, schema has %d columns", d.Name, len(cells), len(d.Columns))
	}
	d.Rows = append(d.Rows, Row{At: at, Cells: append([]Value(nil), cells...)})
	return nil
}

// ColumnIndex returns the position of a column in the schema.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	if d.index == nil {
		d.rebuildIndex()
	}
	i, ok := d.index[name]
	return i, ok
}

func (d *Dataset) rebuildIndex() {
	d.index = make(map[string]int, len(d.Columns))
	for i, col := range d.Columns {
		d.index[col] = i
	}
}

// Clone returns a deep working copy. Pipeline stages mutate only clones;
// the ingested dataset is read-only input.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Name:       d.Name,
		TimeColumn: d.TimeColumn,
		Columns:    append([]string(nil), d.Columns...),
		Rows:       make([]Row, len(d.Rows)),
	}
	for i, row := range d.Rows {
		out.Rows[i] = Row{At: row.At, Cells: append([]Value(nil), row.Cells...)}
	}
	out.rebuildIndex()
	return out
}

// SortByTime orders rows ascending by instant. The sort is stable so rows
// sharing an instant keep their relative input order.
func (d *Dataset) SortByTime() {
	sort.SliceStable(d.Rows, func(i, j int) bool {
		return d.Rows[i].At.Before(d.Rows[j].At)
	})
}

// Point is one sample of a single-column series.
type Point struct {
	At  time.Time
	Val Value
}

// Series extracts one column as an ordered-by-time sequence of points.
// Row order is preserved; callers that need time order sort the dataset
// first.
func (d *Dataset) Series(column string) ([]Point, error) {
	idx, ok := d.ColumnIndex(column)
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w: %q", d.Name, ErrMissingColumn, column)
	}
	pts := make([]Point, len(d.Rows))
	for i, row := range d.Rows {
		pts[i] = Point{At: row.At, Val: row.Cells[idx]}
	}
	return pts, nil
}
