// Package levels resolves horizontal support and resistance levels
// from a normalized price series. Two strategies share one interface,
// selected by configuration: a simple trailing-range scan and a
// swing-based scan with strength scoring. Both are pure and fully
// deterministic — identical input always yields an identical ordered
// level list.
package levels

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"chartlens/internal/indicator"
	"chartlens/internal/model"
	"chartlens/internal/swing"
)

// Strategy selects the resolution variant.
type Strategy string

const (
	// StrategyRange emits at most one support (window minimum) and one
	// resistance (window maximum) from a trailing sub-window, plus
	// optional moving-average levels.
	StrategyRange Strategy = "range"
	// StrategySwing scores swing points near the current price by
	// touch count, volume confirmation and recency.
	StrategySwing Strategy = "swing"
)

// Options holds the resolver configuration. The tolerance and bonus
// constants are tunable defaults carried from the problem domain, not
// fixed law.
type Options struct {
	Strategy Strategy

	// ScanWindow is the trailing sub-window length examined for
	// candidates (biases toward the current regime).
	ScanWindow int
	// SwingWindow is the symmetric lookback used by StrategySwing.
	SwingWindow int

	// ProximityBand is the maximum relative distance from the current
	// price for a swing candidate to stay actionable.
	ProximityBand float64
	// DedupTolerance collapses candidates within this relative distance
	// of an already-accepted level (first encountered wins).
	DedupTolerance float64
	// TouchTolerance is the relative band around a level inside which
	// an observation counts as a touch.
	TouchTolerance float64
	// VolumeBonusRatio and VolumeBonus grant extra strength when the
	// candidate bar's volume exceeds ratio × mean series volume.
	VolumeBonusRatio float64
	VolumeBonus      float64
	// RecencyWeight scales the bonus for a candidate's relative
	// position within the scanned window (later = higher).
	RecencyWeight float64
	// MaxPerSide caps the number of levels kept on each side.
	MaxPerSide int

	// Margin is the minimum relative distance from the current price
	// required by StrategyRange before a window extreme is emitted.
	Margin float64
	// MAPeriods lists moving averages injected as levels by
	// StrategyRange; MABand is the relative distance band within which
	// an MA value is considered actionable.
	MAPeriods []int
	MABand    float64
}

// DefaultOptions returns the tuned defaults for the swing strategy.
func DefaultOptions() Options {
	return Options{
		Strategy:         StrategySwing,
		ScanWindow:       180,
		SwingWindow:      8,
		ProximityBand:    0.05,
		DedupTolerance:   0.015,
		TouchTolerance:   0.01,
		VolumeBonusRatio: 1.5,
		VolumeBonus:      2,
		RecencyWeight:    5,
		MaxPerSide:       4,
		Margin:           0.01,
		MABand:           0.02,
	}
}

// Resolve emits the ranked level list for the series under the given
// options. A level's kind is decided solely by its price relative to
// the current (most recent) price; degenerate inputs (short series, no
// qualifying candidates) yield an empty list, not an error.
func Resolve(s model.Series, opts Options) ([]model.Level, error) {
	if len(s) == 0 {
		return nil, nil
	}
	switch opts.Strategy {
	case StrategyRange:
		return resolveRange(s, opts)
	case StrategySwing, "":
		return resolveSwing(s, opts)
	default:
		return nil, fmt.Errorf("unknown level strategy %q", opts.Strategy)
	}
}

// resolveRange scans the trailing window for its extremes and tags the
// last value of each configured moving average when it sits close
// enough to price to matter.
func resolveRange(s model.Series, opts Options) ([]model.Level, error) {
	if opts.ScanWindow <= 0 {
		return nil, errors.New("scan window must be positive")
	}
	window := s.Tail(opts.ScanWindow)
	current := s.Last().Price

	maxPt, minPt := window[0], window[0]
	for _, p := range window[1:] {
		if p.Price > maxPt.Price {
			maxPt = p
		}
		if p.Price < minPt.Price {
			minPt = p
		}
	}

	var out []model.Level
	if maxPt.Price >= current*(1+opts.Margin) {
		out = append(out, model.Level{
			Price:    maxPt.Price,
			Date:     maxPt.Date,
			Kind:     model.Resistance,
			Strength: 1,
		})
	}
	if minPt.Price <= current*(1-opts.Margin) {
		out = append(out, model.Level{
			Price:    minPt.Price,
			Date:     minPt.Date,
			Kind:     model.Support,
			Strength: 1,
		})
	}

	for _, period := range opts.MAPeriods {
		values, err := indicator.SMA(s.Prices(), period)
		if err != nil {
			return nil, fmt.Errorf("ma level period %d: %w", period, err)
		}
		v := values[len(values)-1]
		if math.IsNaN(v) {
			continue
		}
		if math.Abs(v-current)/current > opts.MABand {
			continue
		}
		kind := model.Support
		if v > current {
			kind = model.Resistance
		}
		out = append(out, model.Level{
			Price:    v,
			Date:     s.Last().Date,
			Kind:     kind,
			Strength: 1,
		})
	}
	return out, nil
}

// resolveSwing detects swing points in the trailing window, keeps the
// ones near the current price, deduplicates them and scores their
// strength against the entire series.
func resolveSwing(s model.Series, opts Options) ([]model.Level, error) {
	if opts.ScanWindow <= 0 {
		return nil, errors.New("scan window must be positive")
	}
	scanned := s.Tail(opts.ScanWindow)
	offset := len(s) - len(scanned)
	current := s.Last().Price
	meanVol := s.MeanVolume()

	pts, err := swing.Find(scanned, opts.SwingWindow)
	if err != nil {
		return nil, err
	}

	var accepted []model.Level
	deduped := func(price float64) bool {
		for _, lv := range accepted {
			if math.Abs(price-lv.Price) <= opts.DedupTolerance*current {
				return true
			}
		}
		return false
	}

	score := func(p model.SwingPoint) float64 {
		strength := 1.0
		level := scanned[p.Index].Price
		for i, obs := range s {
			if i == p.Index+offset {
				continue
			}
			if math.Abs(obs.Price-level)/level <= opts.TouchTolerance {
				strength++
			}
		}
		if meanVol > 0 && float64(scanned[p.Index].Volume) > opts.VolumeBonusRatio*meanVol {
			strength += opts.VolumeBonus
		}
		if len(scanned) > 1 {
			strength += opts.RecencyWeight * float64(p.Index) / float64(len(scanned)-1)
		}
		return strength
	}

	for _, p := range pts.Highs {
		if p.Price < current || (p.Price-current)/current > opts.ProximityBand {
			continue
		}
		if deduped(p.Price) {
			continue
		}
		accepted = append(accepted, model.Level{
			Price:    p.Price,
			Date:     p.Date,
			Kind:     model.Resistance,
			Strength: score(p),
		})
	}
	for _, p := range pts.Lows {
		if p.Price > current || (current-p.Price)/current > opts.ProximityBand {
			continue
		}
		if deduped(p.Price) {
			continue
		}
		accepted = append(accepted, model.Level{
			Price:    p.Price,
			Date:     p.Date,
			Kind:     model.Support,
			Strength: score(p),
		})
	}

	var resistance, support []model.Level
	for _, lv := range accepted {
		if lv.Kind == model.Resistance {
			resistance = append(resistance, lv)
		} else {
			support = append(support, lv)
		}
	}

	// Nearest-above first, nearest-below first, then cap each side.
	sort.SliceStable(resistance, func(i, j int) bool { return resistance[i].Price < resistance[j].Price })
	sort.SliceStable(support, func(i, j int) bool { return support[i].Price > support[j].Price })
	if opts.MaxPerSide > 0 {
		if len(resistance) > opts.MaxPerSide {
			resistance = resistance[:opts.MaxPerSide]
		}
		if len(support) > opts.MaxPerSide {
			support = support[:opts.MaxPerSide]
		}
	}

	out := append(resistance, support...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out, nil
}
