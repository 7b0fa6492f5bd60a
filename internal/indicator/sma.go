// Package indicator provides moving-average transforms over normalized
// price series. Transforms are pure: same input, same output, every
// call. Rounding for display happens at the presentation boundary,
// never here.
package indicator

import (
	"errors"
	"math"
)

// ErrBadPeriod is returned for a non-positive moving-average period.
var ErrBadPeriod = errors.New("period must be positive")

// SMA computes the trailing simple moving average of prices over the
// given period. The result has the same length as the input; the first
// period-1 entries are NaN (insufficient history — never back-filled,
// never interpolated). Entry i >= period-1 is the arithmetic mean of
// prices[i-period+1..i]: a causal window, no lookahead.
func SMA(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrBadPeriod
	}
	out := make([]float64, len(prices))
	roll := NewRolling(period)
	for i, p := range prices {
		roll.Update(p)
		if roll.Ready() {
			out[i] = roll.Value()
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// Rolling maintains a running-sum simple moving average over a
// preallocated circular buffer, giving O(1) updates.
type Rolling struct {
	period int
	buf    []float64
	idx    int
	count  int
	sum    float64
}

// NewRolling creates a rolling mean with the given period. period must
// be positive; callers validate via SMA or check themselves.
func NewRolling(period int) *Rolling {
	return &Rolling{
		period: period,
		buf:    make([]float64, period),
	}
}

// Update feeds the next price into the window.
func (r *Rolling) Update(price float64) {
	if r.count >= r.period {
		r.sum -= r.buf[r.idx]
	}
	r.buf[r.idx] = price
	r.sum += price
	r.idx = (r.idx + 1) % r.period
	r.count++
}

// Ready reports whether a full window has been accumulated.
func (r *Rolling) Ready() bool { return r.count >= r.period }

// Value returns the mean of the current window. Only meaningful once
// Ready returns true.
func (r *Rolling) Value() float64 { return r.sum / float64(r.period) }
