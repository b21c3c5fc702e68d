package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewTimeGrid(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		interval time.Duration
		wantLen  int
		wantErr  bool
	}{
		{
			name:     "five minute grid over fifteen minutes",
			start:    "2024-01-01T00:00:00Z",
			end:      "2024-01-01T00:15:00Z",
			interval: 5 * time.Minute,
			wantLen:  4,
		},
		{
			name:     "single point when start equals end",
			start:    "2024-01-01T00:00:00Z",
			end:      "2024-01-01T00:00:00Z",
			interval: time.Minute,
			wantLen:  1,
		},
		{
			name:     "end not on the grid is truncated",
			start:    "2024-01-01T00:00:00Z",
			end:      "2024-01-01T00:14:00Z",
			interval: 5 * time.Minute,
			wantLen:  3,
		},
		{
			name:     "start after end yields empty grid",
			start:    "2024-01-02T00:00:00Z",
			end:      "2024-01-01T00:00:00Z",
			interval: time.Minute,
			wantLen:  0,
		},
		{
			name:     "zero interval is rejected",
			start:    "2024-01-01T00:00:00Z",
			end:      "2024-01-01T01:00:00Z",
			interval: 0,
			wantErr:  true,
		},
		{
			name:     "negative interval is rejected",
			start:    "2024-01-01T00:00:00Z",
			end:      "2024-01-01T01:00:00Z",
			interval: -time.Second,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := NewTimeGrid(ts(tt.start), ts(tt.end), tt.interval)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInterval)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, grid.Len())
		})
	}
}

func TestNewTimeGrid_LengthInvariant(t *testing.T) {
	start := ts("2024-03-01T08:00:00Z")
	intervals := []time.Duration{time.Second, 30 * time.Second, time.Minute, 7 * time.Minute, time.Hour}
	spans := []time.Duration{0, time.Minute, time.Hour, 26 * time.Hour}

	for _, interval := range intervals {
		for _, span := range spans {
			end := start.Add(span)
			grid, err := NewTimeGrid(start, end, interval)
			require.NoError(t, err)
			assert.Equal(t, int(span/interval)+1, grid.Len(),
				"interval=%v span=%v", interval, span)

			// Uniform spacing, strictly increasing.
			times := grid.Times()
			for i := 1; i < len(times); i++ {
				assert.Equal(t, interval, times[i].Sub(times[i-1]))
			}
		}
	}
}

func TestNewTimeGrid_ExampleFromReportSetup(t *testing.T) {
	grid, err := NewTimeGrid(ts("2024-01-01T00:00:00Z"), ts("2024-01-01T00:15:00Z"), 5*time.Minute)
	require.NoError(t, err)

	want := []time.Time{
		ts("2024-01-01T00:00:00Z"),
		ts("2024-01-01T00:05:00Z"),
		ts("2024-01-01T00:10:00Z"),
		ts("2024-01-01T00:15:00Z"),
	}
	assert.Equal(t, want, grid.Times())
}

func TestParseIntervalSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    time.Duration
		wantErr bool
	}{
		{name: "seconds", spec: "30s", want: 30 * time.Second},
		{name: "minutes", spec: "5m", want: 5 * time.Minute},
		{name: "hours", spec: "2h", want: 2 * time.Hour},
		{name: "days", spec: "1d", want: 24 * time.Hour},
		{name: "bare number means minutes", spec: "15", want: 15 * time.Minute},
		{name: "fractional", spec: "1.5m", want: 90 * time.Second},
		{name: "uppercase and spaces", spec: " 10M ", want: 10 * time.Minute},
		{name: "empty", spec: "", wantErr: true},
		{name: "garbage", spec: "soon", wantErr: true},
		{name: "zero", spec: "0m", wantErr: true},
		{name: "negative", spec: "-5m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntervalSpec(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInterval)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTimeGridFromSpec_FallbackIsReported(t *testing.T) {
	start := ts("2024-01-01T00:00:00Z")
	end := ts("2024-01-01T00:05:00Z")

	grid, warn, err := NewTimeGridFromSpec(start, end, "whenever")
	require.NoError(t, err)
	require.NotNil(t, warn, "fallback must be surfaced, not silent")
	assert.Equal(t, "InvalidInterval", warn.Code)
	assert.Equal(t, DefaultInterval, grid.Interval)
	assert.Equal(t, 6, grid.Len())
}

func TestNewTimeGridFromSpec_ValidSpecHasNoWarning(t *testing.T) {
	grid, warn, err := NewTimeGridFromSpec(ts("2024-01-01T00:00:00Z"), ts("2024-01-01T01:00:00Z"), "15m")
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, 5, grid.Len())
}
