package ingest

import (
	"github.com/montanaflynn/stats"

	"gridmerge/internal/timeseries"
)

// Suggestion is the advisory output of the long-format detector. It
// carries the proposed tag/value pair together with the score that
// produced it so a UI can show why the guess was made. A suggestion is
// never authoritative: the pivot runs only on columns the caller names.
type Suggestion struct {
	TagColumn   string
	ValueColumn string
	Confidence  float64
}

// SuggestLongColumns inspects a dataset and guesses which column holds
// tags and which holds measured values, for sources that look long-format.
//
// The value column is the one whose cells are most consistently numeric;
// the tag column is the mostly-textual column with the fewest distinct
// values, since a long layout repeats each tag once per timestamp. The
// returned confidence is the numeric share of the chosen value column
// scaled by how strongly the tag column repeats; callers should treat
// anything under about 0.5 as noise.
func SuggestLongColumns(ds *timeseries.Dataset) (Suggestion, bool) {
	if len(ds.Columns) < 2 || len(ds.Rows) == 0 {
		return Suggestion{}, false
	}

	type profile struct {
		name         string
		numericShare float64
		distinctness float64 // distinct values / rows
	}

	profiles := make([]profile, 0, len(ds.Columns))
	for _, col := range ds.Columns {
		pts, err := ds.Series(col)
		if err != nil {
			continue
		}

		indicator := make([]float64, 0, len(pts))
		distinct := make(map[string]struct{})
		populated := 0
		for _, p := range pts {
			if p.Val.IsMissing() {
				continue
			}
			populated++
			distinct[p.Val.String()] = struct{}{}
			if _, ok := p.Val.Float(); ok {
				indicator = append(indicator, 1)
			} else {
				indicator = append(indicator, 0)
			}
		}
		if populated == 0 {
			continue
		}
		share, err := stats.Mean(indicator)
		if err != nil {
			continue
		}
		profiles = append(profiles, profile{
			name:         col,
			numericShare: share,
			distinctness: float64(len(distinct)) / float64(populated),
		})
	}
	if len(profiles) < 2 {
		return Suggestion{}, false
	}

	// Value column: highest numeric share, break ties on higher
	// distinctness (measurements vary, tags repeat).
	value := profiles[0]
	for _, p := range profiles[1:] {
		if p.numericShare > value.numericShare ||
			(p.numericShare == value.numericShare && p.distinctness > value.distinctness) {
			value = p
		}
	}

	// Tag column: lowest distinctness among the mostly-textual rest.
	var tag *profile
	for i := range profiles {
		p := &profiles[i]
		if p.name == value.name || p.numericShare > 0.5 {
			continue
		}
		if tag == nil || p.distinctness < tag.distinctness {
			tag = p
		}
	}
	if tag == nil || value.numericShare == 0 {
		return Suggestion{}, false
	}

	return Suggestion{
		TagColumn:   tag.name,
		ValueColumn: value.name,
		Confidence:  value.numericShare * (1 - tag.distinctness),
	}, true
}
