package timeseries

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultInterval is the grid spacing used when an interval spec cannot be
// parsed. Falling back instead of failing keeps a misconfigured report
// producible; the fallback is always surfaced as a warning.
const DefaultInterval = time.Minute

// TimeGrid is the ordered, fixed-interval sequence of instants from Start
// to End inclusive onto which all sources are resampled.
type TimeGrid struct {
	Start    time.Time
	End      time.Time
	Interval time.Duration

	times []time.Time
}

// NewTimeGrid builds a grid. Interval must be strictly positive; a start
// after end is not an error and yields an empty grid.
func NewTimeGrid(start, end time.Time, interval time.Duration) (TimeGrid, error) {
	if interval <= 0 {
		return TimeGrid{}, fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}
	g := TimeGrid{Start: start, End: end, Interval: interval}
	if start.After(end) {
		return g, nil
	}
	n := int(end.Sub(start)/interval) + 1
	g.times = make([]time.Time, n)
	for i := 0; i < n; i++ {
		g.times[i] = start.Add(time.Duration(i) * interval)
	}
	return g, nil
}

// NewTimeGridFromSpec builds a grid from a textual interval spec. An
// unrecognized or non-positive spec falls back to DefaultInterval and the
// returned warning reports the substitution.
func NewTimeGridFromSpec(start, end time.Time, spec string) (TimeGrid, *Warning, error) {
	interval, err := ParseIntervalSpec(spec)
	var warn *Warning
	if err != nil {
		warn = &Warning{
			Code:    "InvalidInterval",
			Message: fmt.Sprintf("interval spec %q not usable (%v), using default %s", spec, err, DefaultInterval),
		}
		interval = DefaultInterval
	}
	grid, err := NewTimeGrid(start, end, interval)
	if err != nil {
		return TimeGrid{}, warn, err
	}
	return grid, warn, nil
}

// ParseIntervalSpec parses a unit-suffixed interval such as "30s", "5m",
// "2h" or "1d". Bare numbers are taken as minutes.
func ParseIntervalSpec(spec string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" {
		return 0, fmt.Errorf("%w: empty spec", ErrInvalidInterval)
	}

	unit := time.Minute
	switch s[len(s)-1] {
	case 's':
		unit = time.Second
		s = s[:len(s)-1]
	case 'm':
		unit = time.Minute
		s = s[:len(s)-1]
	case 'h':
		unit = time.Hour
		s = s[:len(s)-1]
	case 'd':
		unit = 24 * time.Hour
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, spec)
	}
	d := time.Duration(n * float64(unit))
	if d <= 0 {
		return 0, fmt.Errorf("%w: non-positive interval %q", ErrInvalidInterval, spec)
	}
	return d, nil
}

// Times returns the materialized grid instants. The slice is shared;
// callers must not modify it.
func (g TimeGrid) Times() []time.Time {
	return g.times
}

// Len returns the number of grid instants.
func (g TimeGrid) Len() int {
	return len(g.times)
}

// At returns the i-th grid instant.
func (g TimeGrid) At(i int) time.Time {
	return g.times[i]
}
