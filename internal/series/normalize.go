// Package series converts raw quote payloads into normalized Series
// values the analysis engine can consume.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"chartlens/internal/model"
)

// ErrNoData is returned when normalization leaves zero usable points.
// The pipeline must not run past the normalizer in that case.
var ErrNoData = errors.New("no usable data points after normalization")

// Raw holds the parallel arrays of an upstream quote payload.
// Closes is mandatory; the other columns may be nil or contain nil
// entries for non-trading gaps. All non-nil columns must have the same
// length as Timestamps.
type Raw struct {
	Timestamps []int64
	Closes     []*float64
	Highs      []*float64
	Lows       []*float64
	Volumes    []*int64
}

// Normalize turns a Raw payload into an ordered, gap-free Series.
// Entries with a missing or non-positive close are dropped entirely,
// never zero-filled. Dates are collapsed to calendar-day granularity;
// when two timestamps land on the same day the first is kept. Returns
// ErrNoData when nothing usable remains, and a structural error when
// column lengths disagree.
func Normalize(raw Raw) (model.Series, error) {
	n := len(raw.Timestamps)
	if len(raw.Closes) != n {
		return nil, fmt.Errorf("closes length %d does not match timestamps length %d", len(raw.Closes), n)
	}
	for name, col := range map[string]int{
		"highs":   len(raw.Highs),
		"lows":    len(raw.Lows),
		"volumes": len(raw.Volumes),
	} {
		if col != 0 && col != n {
			return nil, fmt.Errorf("%s length %d does not match timestamps length %d", name, col, n)
		}
	}

	out := make(model.Series, 0, n)
	for i := 0; i < n; i++ {
		if raw.Closes[i] == nil || *raw.Closes[i] <= 0 {
			continue
		}
		p := model.PricePoint{
			Date:  time.Unix(raw.Timestamps[i], 0).UTC().Format(model.DateLayout),
			Price: *raw.Closes[i],
		}
		if len(raw.Highs) == n && raw.Highs[i] != nil {
			p.High = *raw.Highs[i]
		}
		if len(raw.Lows) == n && raw.Lows[i] != nil {
			p.Low = *raw.Lows[i]
		}
		if len(raw.Volumes) == n && raw.Volumes[i] != nil && *raw.Volumes[i] >= 0 {
			p.Volume = *raw.Volumes[i]
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	// Drop duplicate calendar days, keeping the first occurrence.
	dedup := out[:0]
	for _, p := range out {
		if len(dedup) > 0 && dedup[len(dedup)-1].Date == p.Date {
			continue
		}
		dedup = append(dedup, p)
	}

	if len(dedup) == 0 {
		return nil, ErrNoData
	}
	return dedup, nil
}
