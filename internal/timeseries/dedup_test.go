package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDataset(t *testing.T, columns []string, rows ...Row) *Dataset {
	t.Helper()
	ds, err := NewDataset("test", "timestamp", columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, ds.AppendRow(row.At, row.Cells))
	}
	return ds
}

func TestResolveDuplicates_NumericPolicies(t *testing.T) {
	at := ts("2024-01-01T10:00:00Z")

	tests := []struct {
		name   string
		policy DuplicatePolicy
		want   float64
	}{
		{name: "average of 4 and 6 is 5", policy: DuplicateAverage, want: 5},
		{name: "maximum of 4 and 6 is 6", policy: DuplicateMaximum, want: 6},
		{name: "minimum of 4 and 6 is 4", policy: DuplicateMinimum, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := makeDataset(t, []string{"v"},
				Row{At: at, Cells: []Value{Number(4)}},
				Row{At: at, Cells: []Value{Number(6)}},
			)

			out, warnings, err := ResolveDuplicates(ds, tt.policy)
			assert.Empty(t, warnings)
			require.NoError(t, err)
			require.Len(t, out.Rows, 1)

			got, ok := out.Rows[0].Cells[0].Float()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDuplicates_GroupsByInstantNotText(t *testing.T) {
	// The same moment in two different zones must land in one group.
	utc := ts("2024-01-01T12:00:00Z")
	shifted := utc.In(time.FixedZone("plus3", 3*3600))

	ds := makeDataset(t, []string{"v"},
		Row{At: utc, Cells: []Value{Number(10)}},
		Row{At: shifted, Cells: []Value{Number(20)}},
	)

	out, _, err := ResolveDuplicates(ds, DuplicateAverage)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)

	got, _ := out.Rows[0].Cells[0].Float()
	assert.Equal(t, 15.0, got)
}

func TestResolveDuplicates_KeepFirstKeepLast(t *testing.T) {
	at := ts("2024-01-01T10:00:00Z")
	ds := makeDataset(t, []string{"label", "v"},
		Row{At: at, Cells: []Value{Text("early"), Number(1)}},
		Row{At: at, Cells: []Value{Text("late"), Number(2)}},
	)

	first, warnings, err := ResolveDuplicates(ds, DuplicateKeepFirst)
	require.NoError(t, err)
	require.Len(t, first.Rows, 1)
	assert.Equal(t, "early", first.Rows[0].Cells[0].String())
	assert.Empty(t, warnings, "raw-value policies do not warn")

	last, _, err := ResolveDuplicates(ds, DuplicateKeepLast)
	require.NoError(t, err)
	require.Len(t, last.Rows, 1)
	assert.Equal(t, "late", last.Rows[0].Cells[0].String())
}

func TestResolveDuplicates_TextFallsBackToFirstRaw(t *testing.T) {
	// No cell parses as a number: Average keeps the first raw value and
	// reports the column as unparsable.
	at := ts("2024-01-01T10:00:00Z")
	ds := makeDataset(t, []string{"status"},
		Row{At: at, Cells: []Value{Text("open")}},
		Row{At: at, Cells: []Value{Text("closed")}},
	)

	out, warnings, err := ResolveDuplicates(ds, DuplicateAverage)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "open", out.Rows[0].Cells[0].String())

	require.Len(t, warnings, 1)
	assert.Equal(t, "status", warnings[0].Column)
	assert.Equal(t, "UnparsableNumeric", warnings[0].Code)
}

func TestResolveDuplicates_MixedNumericUsesNumericSubset(t *testing.T) {
	at := ts("2024-01-01T10:00:00Z")
	ds := makeDataset(t, []string{"v"},
		Row{At: at, Cells: []Value{Text("n/a")}},
		Row{At: at, Cells: []Value{Number(8)}},
		Row{At: at, Cells: []Value{Text("12")}},
	)

	out, warnings, err := ResolveDuplicates(ds, DuplicateAverage)
	require.NoError(t, err)
	assert.Empty(t, warnings, "a numeric subset is enough to aggregate")

	got, ok := out.Rows[0].Cells[0].Float()
	require.True(t, ok)
	assert.Equal(t, 10.0, got)
}

func TestResolveDuplicates_KeepAllOnlySorts(t *testing.T) {
	a := ts("2024-01-01T10:00:00Z")
	b := ts("2024-01-01T09:00:00Z")
	ds := makeDataset(t, []string{"v"},
		Row{At: a, Cells: []Value{Number(1)}},
		Row{At: a, Cells: []Value{Number(2)}},
		Row{At: b, Cells: []Value{Number(3)}},
	)

	out, _, err := ResolveDuplicates(ds, DuplicateKeepAll)
	require.NoError(t, err)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, b, out.Rows[0].At)
	assert.Equal(t, a, out.Rows[1].At)
}

func TestResolveDuplicates_SingletonGroupsPassThrough(t *testing.T) {
	ds := makeDataset(t, []string{"v"},
		Row{At: ts("2024-01-01T10:00:00Z"), Cells: []Value{Text("unchanged")}},
		Row{At: ts("2024-01-01T11:00:00Z"), Cells: []Value{Number(7)}},
	)

	out, warnings, err := ResolveDuplicates(ds, DuplicateAverage)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "unchanged", out.Rows[0].Cells[0].String())
	assert.Empty(t, warnings)
}

func TestResolveDuplicates_DoesNotMutateInput(t *testing.T) {
	at := ts("2024-01-01T10:00:00Z")
	ds := makeDataset(t, []string{"v"},
		Row{At: at, Cells: []Value{Number(4)}},
		Row{At: at, Cells: []Value{Number(6)}},
	)

	_, _, err := ResolveDuplicates(ds, DuplicateAverage)
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 2, "input dataset is read-only")
}

func TestResolveDuplicatePoints(t *testing.T) {
	at := ts("2024-01-01T10:00:00Z")
	pts := []Point{
		{At: at.Add(time.Minute), Val: Number(9)},
		{At: at, Val: Number(4)},
		{At: at, Val: Number(6)},
	}

	out := ResolveDuplicatePoints(pts, DuplicateAverage)
	require.Len(t, out, 2)
	got, _ := out[0].Val.Float()
	assert.Equal(t, 5.0, got)
	assert.Equal(t, at.Add(time.Minute), out[1].At)
}

func TestParseDuplicatePolicy(t *testing.T) {
	got, err := ParseDuplicatePolicy("average")
	require.NoError(t, err)
	assert.Equal(t, DuplicateAverage, got)

	got, err = ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateKeepAll, got)

	_, err = ParseDuplicatePolicy("mode")
	assert.Error(t, err)
}
