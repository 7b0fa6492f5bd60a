package model

// DateLayout is the calendar-day format used throughout the engine.
// Dates are timezone-naive day strings so exact-match comparisons
// between derived entities are safe.
const DateLayout = "2006-01-02"

// PricePoint is one trading day in a normalized Series.
// Price is always > 0; High, Low and Volume are optional and zero
// when the upstream payload did not carry them.
type PricePoint struct {
	Date   string  `json:"date"` // calendar day, DateLayout
	Price  float64 `json:"price"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Volume int64   `json:"volume,omitempty"`
}

// Series is an ordered, gap-free sequence of PricePoints, strictly
// ascending by date with no duplicates. The 0-based position doubles
// as the time coordinate for slope math. A Series is immutable once
// built: refreshes replace it wholesale, never patch it.
type Series []PricePoint

// Prices returns the close prices as a flat slice.
func (s Series) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Last returns the most recent point. Callers must check Len first.
func (s Series) Last() PricePoint {
	return s[len(s)-1]
}

// MeanVolume returns the arithmetic mean of the volume column, or 0
// for an empty series or one with no volume data.
func (s Series) MeanVolume() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, p := range s {
		sum += float64(p.Volume)
	}
	return sum / float64(len(s))
}

// Tail returns the trailing sub-series of at most n points.
// The returned slice shares backing storage; treat it as read-only.
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return nil
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
