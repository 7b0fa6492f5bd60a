package gateway

import (
	"math"
	"time"

	"chartlens/internal/model"
)

// ChartOut is the wire shape of one symbol's chart payload. Overlay
// values are pointers so warm-up gaps serialize as JSON null instead
// of NaN, which encoding/json rejects. All prices are rounded to two
// decimals at this boundary only; internal computation stays at full
// precision.
type ChartOut struct {
	Symbol     string       `json:"symbol"`
	FetchedAt  string       `json:"fetched_at"`
	Generation int64        `json:"generation"`
	Points     []PointOut   `json:"points"`
	Overlays   []OverlayOut `json:"overlays"`
	SwingHighs []SwingOut   `json:"swing_highs"`
	SwingLows  []SwingOut   `json:"swing_lows"`
	Levels     []LevelOut   `json:"levels"`
	Trends     []TrendOut   `json:"trends"`
}

type PointOut struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Volume int64   `json:"volume,omitempty"`
}

type OverlayOut struct {
	Period int        `json:"period"`
	Values []*float64 `json:"values"`
}

type SwingOut struct {
	Index int     `json:"index"`
	Date  string  `json:"date"`
	Price float64 `json:"price"`
	Kind  string  `json:"kind"`
}

type LevelOut struct {
	Price    float64 `json:"price"`
	Date     string  `json:"date"`
	Kind     string  `json:"kind"`
	Strength float64 `json:"strength"`
}

type TrendOut struct {
	Kind       string  `json:"kind"`
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToChartOut converts an analysis result to its wire shape.
func ToChartOut(res *model.AnalysisResult) ChartOut {
	out := ChartOut{
		Symbol:     res.Symbol,
		FetchedAt:  res.FetchedAt.Format(time.RFC3339),
		Generation: res.Generation,
		Points:     make([]PointOut, len(res.Series)),
		Overlays:   make([]OverlayOut, len(res.Overlays)),
		SwingHighs: make([]SwingOut, len(res.SwingHighs)),
		SwingLows:  make([]SwingOut, len(res.SwingLows)),
		Levels:     make([]LevelOut, len(res.Levels)),
		Trends:     make([]TrendOut, len(res.Trends)),
	}

	for i, p := range res.Series {
		out.Points[i] = PointOut{
			Date:   p.Date,
			Price:  round2(p.Price),
			High:   round2(p.High),
			Low:    round2(p.Low),
			Volume: p.Volume,
		}
	}

	for i, ov := range res.Overlays {
		values := make([]*float64, len(ov.Values))
		for j, v := range ov.Values {
			if math.IsNaN(v) {
				continue
			}
			r := round2(v)
			values[j] = &r
		}
		out.Overlays[i] = OverlayOut{Period: ov.Period, Values: values}
	}

	for i, sp := range res.SwingHighs {
		out.SwingHighs[i] = swingOut(sp)
	}
	for i, sp := range res.SwingLows {
		out.SwingLows[i] = swingOut(sp)
	}

	for i, lv := range res.Levels {
		out.Levels[i] = LevelOut{
			Price:    round2(lv.Price),
			Date:     lv.Date,
			Kind:     string(lv.Kind),
			Strength: lv.Strength,
		}
	}

	for i, tr := range res.Trends {
		out.Trends[i] = TrendOut{
			Kind:       string(tr.Kind),
			Slope:      tr.Slope,
			Intercept:  tr.Intercept,
			StartIndex: tr.StartIndex,
			EndIndex:   tr.EndIndex,
		}
	}

	return out
}

func swingOut(sp model.SwingPoint) SwingOut {
	return SwingOut{
		Index: sp.Index,
		Date:  sp.Date,
		Price: round2(sp.Price),
		Kind:  string(sp.Kind),
	}
}
