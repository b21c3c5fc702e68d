package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seriesDataset builds a one-column dataset from a sparse value list;
// nil entries become missing cells, spaced one minute apart.
func seriesDataset(t *testing.T, vals ...*float64) *Dataset {
	t.Helper()
	base := ts("2024-01-01T00:00:00Z")
	ds, err := NewDataset("test", "timestamp", []string{"v"})
	require.NoError(t, err)
	for i, v := range vals {
		cell := Missing()
		if v != nil {
			cell = Number(*v)
		}
		require.NoError(t, ds.AppendRow(base.Add(time.Duration(i)*time.Minute), []Value{cell}))
	}
	return ds
}

func f(v float64) *float64 { return &v }

func columnFloats(t *testing.T, ds *Dataset, col string) []*float64 {
	t.Helper()
	pts, err := ds.Series(col)
	require.NoError(t, err)
	out := make([]*float64, len(pts))
	for i, p := range pts {
		if p.Val.IsMissing() {
			continue
		}
		v, ok := p.Val.Float()
		require.True(t, ok)
		out[i] = &v
	}
	return out
}

func TestCleanColumn_NearestFill(t *testing.T) {
	tests := []struct {
		name string
		in   []*float64
		want []*float64
	}{
		{
			name: "interior gap takes the preceding value",
			in:   []*float64{f(1), nil, f(3)},
			want: []*float64{f(1), f(1), f(3)},
		},
		{
			name: "long interior run is all preceding value",
			in:   []*float64{f(1), nil, nil, nil, f(9)},
			want: []*float64{f(1), f(1), f(1), f(1), f(9)},
		},
		{
			name: "leading gap is backfilled from the following value",
			in:   []*float64{nil, nil, f(5), nil, f(7)},
			want: []*float64{f(5), f(5), f(5), f(5), f(7)},
		},
		{
			name: "trailing gap carries the last value forward",
			in:   []*float64{f(2), nil, nil},
			want: []*float64{f(2), f(2), f(2)},
		},
		{
			name: "all missing stays missing",
			in:   []*float64{nil, nil},
			want: []*float64{nil, nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := seriesDataset(t, tt.in...)
			require.NoError(t, CleanColumn(ds, "v", CleanupNearestFill))
			assert.Equal(t, tt.want, columnFloats(t, ds, "v"))
		})
	}
}

func TestCleanColumn_NearestFill_NoInteriorGapsRemain(t *testing.T) {
	ds := seriesDataset(t, nil, f(1), nil, nil, f(4), nil, f(6), nil)
	require.NoError(t, CleanColumn(ds, "v", CleanupNearestFill))

	for i, v := range columnFloats(t, ds, "v") {
		assert.NotNil(t, v, "index %d still missing", i)
	}
}

func TestCleanColumn_LinearInterpolate(t *testing.T) {
	tests := []struct {
		name string
		in   []*float64
		want []*float64
	}{
		{
			name: "midpoint between 0 and 10 is 5",
			in:   []*float64{f(0), nil, f(10)},
			want: []*float64{f(0), f(5), f(10)},
		},
		{
			name: "uneven gap interpolates by elapsed-time ratio",
			in:   []*float64{f(0), nil, nil, nil, f(8)},
			want: []*float64{f(0), f(2), f(4), f(6), f(8)},
		},
		{
			name: "leading gap copies the following value",
			in:   []*float64{nil, f(4), f(6)},
			want: []*float64{f(4), f(4), f(6)},
		},
		{
			name: "trailing gap copies the preceding value",
			in:   []*float64{f(4), f(6), nil},
			want: []*float64{f(4), f(6), f(6)},
		},
		{
			name: "all missing stays missing",
			in:   []*float64{nil, nil, nil},
			want: []*float64{nil, nil, nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := seriesDataset(t, tt.in...)
			require.NoError(t, CleanColumn(ds, "v", CleanupLinearInterpolate))
			assert.Equal(t, tt.want, columnFloats(t, ds, "v"))
		})
	}
}

func TestCleanColumn_DropRow(t *testing.T) {
	ds := seriesDataset(t, f(1), nil, f(3), nil)
	require.NoError(t, CleanColumn(ds, "v", CleanupDropRow))

	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []*float64{f(1), f(3)}, columnFloats(t, ds, "v"))
}

func TestCleanColumn_DropRowIsOrderDependentAcrossColumns(t *testing.T) {
	// Dropping column a's missing rows removes rows column b still had
	// values in. The shared-working-copy ordering is part of the
	// combiner contract, so pin it here.
	base := ts("2024-01-01T00:00:00Z")
	ds, err := NewDataset("test", "timestamp", []string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow(base, []Value{Number(1), Missing()}))
	require.NoError(t, ds.AppendRow(base.Add(time.Minute), []Value{Missing(), Number(2)}))
	require.NoError(t, ds.AppendRow(base.Add(2*time.Minute), []Value{Number(3), Number(4)}))

	require.NoError(t, CleanColumn(ds, "a", CleanupDropRow))
	require.Len(t, ds.Rows, 2)

	// Column b lost its value at minute 1 even though it was present.
	bVals := columnFloats(t, ds, "b")
	assert.Nil(t, bVals[0])
	assert.Equal(t, f(4), bVals[1])
}

func TestCleanColumn_ZeroFill(t *testing.T) {
	ds := seriesDataset(t, nil, f(7), nil)
	require.NoError(t, CleanColumn(ds, "v", CleanupZeroFill))
	assert.Equal(t, []*float64{f(0), f(7), f(0)}, columnFloats(t, ds, "v"))
}

func TestCleanColumn_UnknownColumn(t *testing.T) {
	ds := seriesDataset(t, f(1))
	err := CleanColumn(ds, "nope", CleanupZeroFill)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCleanColumn_TextValuesAreValid(t *testing.T) {
	// Cleanup treats any non-missing cell as valid, including text.
	base := ts("2024-01-01T00:00:00Z")
	ds, err := NewDataset("test", "timestamp", []string{"status"})
	require.NoError(t, err)
	require.NoError(t, ds.AppendRow(base, []Value{Text("ok")}))
	require.NoError(t, ds.AppendRow(base.Add(time.Minute), []Value{Missing()}))

	require.NoError(t, CleanColumn(ds, "status", CleanupNearestFill))
	assert.Equal(t, "ok", ds.Rows[1].Cells[0].String())
}

func TestParseCleanupPolicy(t *testing.T) {
	got, err := ParseCleanupPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CleanupNearestFill, got)

	_, err = ParseCleanupPolicy("median_fill")
	assert.Error(t, err)
}
