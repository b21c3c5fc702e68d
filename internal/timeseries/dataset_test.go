package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	tests := []struct {
		name      string
		val       Value
		missing   bool
		wantFloat *float64
		wantStr   string
	}{
		{name: "zero value is missing", val: Value{}, missing: true, wantStr: ""},
		{name: "explicit missing", val: Missing(), missing: true, wantStr: ""},
		{name: "number", val: Number(3.5), wantFloat: f(3.5), wantStr: "3.5"},
		{name: "text", val: Text("hello"), wantStr: "hello"},
		{name: "numeric text parses", val: Text("42"), wantFloat: f(42), wantStr: "42"},
		{name: "thousands separator", val: Text("1,234.5"), wantFloat: f(1234.5), wantStr: "1,234.5"},
		{name: "blank text is missing", val: Text("   "), missing: true, wantStr: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, tt.val.IsMissing())
			assert.Equal(t, tt.wantStr, tt.val.String())

			got, ok := tt.val.Float()
			if tt.wantFloat == nil {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, *tt.wantFloat, got)
			}
		})
	}
}

func TestNewDataset_SchemaValidation(t *testing.T) {
	_, err := NewDataset("x", "time", []string{"a", "a"})
	assert.Error(t, err, "duplicate column")

	_, err = NewDataset("x", "time", []string{"a", " "})
	assert.Error(t, err, "blank column name")
}

func TestDataset_AppendRowWidthMismatch(t *testing.T) {
	ds, err := NewDataset("x", "time", []string{"a", "b"})
	require.NoError(t, err)

	err = ds.AppendRow(ts("2024-01-01T00:00:00Z"), []Value{Number(1)})
	assert.Error(t, err)
}

func TestDataset_CloneIsIndependent(t *testing.T) {
	ds := makeDataset(t, []string{"v"},
		Row{At: ts("2024-01-01T00:00:00Z"), Cells: []Value{Number(1)}},
	)

	clone := ds.Clone()
	clone.Rows[0].Cells[0] = Number(99)
	clone.Rows = clone.Rows[:0]

	v, _ := ds.Rows[0].Cells[0].Float()
	assert.Equal(t, 1.0, v)
	assert.Len(t, ds.Rows, 1)
}

func TestDataset_SeriesUnknownColumn(t *testing.T) {
	ds := makeDataset(t, []string{"v"})
	_, err := ds.Series("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}
