package timeseries

import (
	"fmt"
	"time"
)

// AlignmentPolicy selects how a cleaned series is resampled onto the grid.
type AlignmentPolicy string

const (
	AlignNearestNeighbor   AlignmentPolicy = "nearest_neighbor"
	AlignLinearInterpolate AlignmentPolicy = "linear_interpolate"
	AlignWindowAverage     AlignmentPolicy = "window_average"
)

// ParseAlignmentPolicy validates a policy string. An empty string means
// NearestNeighbor.
func ParseAlignmentPolicy(s string) (AlignmentPolicy, error) {
	switch AlignmentPolicy(s) {
	case AlignNearestNeighbor, AlignLinearInterpolate, AlignWindowAverage:
		return AlignmentPolicy(s), nil
	case "":
		return AlignNearestNeighbor, nil
	}
	return "", fmt.Errorf("unknown alignment policy %q", s)
}

// AlignSeries resamples a sorted series onto the grid, producing exactly
// one value (or missing) per grid instant. The window width for
// WindowAverage is the grid's own interval, so the same series aligned to
// a finer or coarser grid averages over a matching window.
//
// Both the grid and the series are sorted ascending, so a single cursor
// per policy walks the series once: O(n+m) instead of a per-instant scan.
func AlignSeries(pts []Point, grid TimeGrid, policy AlignmentPolicy) ([]Value, error) {
	// Missing points carry no sample and never participate in alignment.
	samples := make([]Point, 0, len(pts))
	for _, p := range pts {
		if !p.Val.IsMissing() {
			samples = append(samples, p)
		}
	}

	out := make([]Value, grid.Len())
	switch policy {
	case AlignNearestNeighbor:
		alignNearest(samples, grid, out)
	case AlignLinearInterpolate:
		alignInterpolate(samples, grid, out)
	case AlignWindowAverage:
		alignWindowAverage(samples, grid, out)
	default:
		return nil, fmt.Errorf("unknown alignment policy %q", policy)
	}
	return out, nil
}

// alignNearest picks, per grid instant, the sample minimizing absolute
// time distance. Ties go to the earlier sample, the first one the scan
// encounters, which keeps the choice stable and deterministic.
func alignNearest(samples []Point, grid TimeGrid, out []Value) {
	if len(samples) == 0 {
		return
	}
	cursor := 0
	for i := 0; i < grid.Len(); i++ {
		at := grid.At(i)
		// Advance while the next sample is strictly closer; on equal
		// distance the earlier sample stays selected.
		for cursor+1 < len(samples) {
			cur := absDuration(samples[cursor].At.Sub(at))
			next := absDuration(samples[cursor+1].At.Sub(at))
			if next < cur {
				cursor++
				continue
			}
			break
		}
		out[i] = samples[cursor].Val
	}
}

// alignInterpolate finds the last sample at or before each grid instant
// and the first at or after it. An exact match wins outright, two distinct
// neighbors interpolate by elapsed-time ratio, a single neighbor is used
// as-is, and no neighbors leave the instant missing. The series is never
// extrapolated beyond its range.
func alignInterpolate(samples []Point, grid TimeGrid, out []Value) {
	if len(samples) == 0 {
		return
	}
	after := 0
	for i := 0; i < grid.Len(); i++ {
		at := grid.At(i)
		for after < len(samples) && samples[after].At.Before(at) {
			after++
		}

		switch {
		case after < len(samples) && samples[after].At.Equal(at):
			out[i] = samples[after].Val
		case after == 0:
			out[i] = samples[0].Val
		case after == len(samples):
			out[i] = samples[len(samples)-1].Val
		default:
			before := after - 1
			out[i] = interpolateAt(at,
				samples[before].At, samples[before].Val,
				samples[after].At, samples[after].Val)
		}
	}
}

// alignWindowAverage averages the numeric samples inside
// [instant-interval/2, instant+interval/2); an empty window falls back to
// the nearest-neighbor value for that instant.
func alignWindowAverage(samples []Point, grid TimeGrid, out []Value) {
	if len(samples) == 0 {
		return
	}
	half := grid.Interval / 2
	lo := 0
	nearest := make([]Value, len(out))
	alignNearest(samples, grid, nearest)

	for i := 0; i < grid.Len(); i++ {
		at := grid.At(i)
		windowStart := at.Add(-half)
		windowEnd := at.Add(half)

		for lo < len(samples) && samples[lo].At.Before(windowStart) {
			lo++
		}

		var sum float64
		count := 0
		for j := lo; j < len(samples) && samples[j].At.Before(windowEnd); j++ {
			if f, ok := samples[j].Val.Float(); ok {
				sum += f
				count++
			}
		}

		if count == 0 {
			out[i] = nearest[i]
			continue
		}
		out[i] = Number(sum / float64(count))
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
