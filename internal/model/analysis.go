package model

import "time"

// PointKind classifies a swing point.
type PointKind string

const (
	SwingHigh PointKind = "high"
	SwingLow  PointKind = "low"
)

// LevelKind classifies a horizontal level or trend segment relative to
// the current price at resolution time.
type LevelKind string

const (
	Support    LevelKind = "support"
	Resistance LevelKind = "resistance"
)

// SwingPoint is a local price extremum within a symmetric window of
// neighbors. Derived, recomputed fully on every series change.
type SwingPoint struct {
	Index int       `json:"index"`
	Date  string    `json:"date"`
	Price float64   `json:"price"`
	Kind  PointKind `json:"kind"`
}

// Level is a horizontal support or resistance price. Strength is a
// heuristic ranking signal (touch count, volume confirmation,
// recency), not a probability.
type Level struct {
	Price    float64   `json:"price"`
	Date     string    `json:"date"`
	Kind     LevelKind `json:"kind"`
	Strength float64   `json:"strength"`
}

// TrendSegment is a straight line price = Slope*index + Intercept,
// valid on [StartIndex, EndIndex] of the series it was derived from.
type TrendSegment struct {
	Kind       LevelKind `json:"kind"`
	Slope      float64   `json:"slope"`
	Intercept  float64   `json:"intercept"`
	StartIndex int       `json:"start_index"`
	EndIndex   int       `json:"end_index"`
}

// PriceAt evaluates the segment line at the given series index.
func (t TrendSegment) PriceAt(index int) float64 {
	return t.Slope*float64(index) + t.Intercept
}

// MAOverlay is one computed moving-average series. Values has the same
// length as the source series; the first Period-1 entries are NaN
// (insufficient history) and must be treated as "no signal".
type MAOverlay struct {
	Period int       `json:"period"`
	Values []float64 `json:"values"`
}

// CycleRecord is a compact summary of one completed refresh cycle,
// kept in memory for the ops surface.
type CycleRecord struct {
	Symbol     string        `json:"symbol"`
	Generation int64         `json:"generation"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Duration   time.Duration `json:"duration_ns"`
	Points     int           `json:"points"`
	Levels     int           `json:"levels"`
	Stale      bool          `json:"stale"`
}

// AnalysisResult is the complete output of one pipeline pass over one
// symbol's series. It is immutable, owned by a single analysis cycle,
// and holds no reference back to the raw upstream payload. A refresh
// replaces the whole value atomically; there is no incremental merge.
type AnalysisResult struct {
	Symbol     string         `json:"symbol"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Generation int64          `json:"generation"`
	Series     Series         `json:"series"`
	Overlays   []MAOverlay    `json:"overlays"`
	SwingHighs []SwingPoint   `json:"swing_highs"`
	SwingLows  []SwingPoint   `json:"swing_lows"`
	Levels     []Level        `json:"levels"`
	Trends     []TrendSegment `json:"trends"`
}
