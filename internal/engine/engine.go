// Package engine composes the analysis pipeline: normalized series in,
// one immutable AnalysisResult out. Every stage is a pure synchronous
// function; recomputation is the only update path.
package engine

import (
	"errors"
	"fmt"
	"time"

	"chartlens/internal/indicator"
	"chartlens/internal/levels"
	"chartlens/internal/model"
	"chartlens/internal/swing"
	"chartlens/internal/trend"
)

// ErrEmptySeries is returned when the pipeline is invoked with no
// points at all. Anything shorter than an indicator or detector window
// is degenerate-but-valid and yields empty outputs instead.
var ErrEmptySeries = errors.New("empty series")

// Options configures one pipeline pass.
type Options struct {
	// MAPeriods are the moving-average overlay periods, each toggled
	// independently at the display layer.
	MAPeriods []int
	// SwingWindow is the symmetric lookback/lookahead for the swing
	// detector.
	SwingWindow int
	// Levels configures the support/resistance resolver.
	Levels levels.Options
}

// DefaultOptions returns the daily-chart defaults.
func DefaultOptions() Options {
	return Options{
		MAPeriods:   []int{20, 50, 200},
		SwingWindow: 5,
		Levels:      levels.DefaultOptions(),
	}
}

// Analyze runs the full pipeline over the series. The result is owned
// by this one analysis cycle: it holds no reference to the raw
// upstream payload and is never patched afterwards. Calling Analyze
// twice on the same input yields identical swing, level and trend
// lists.
func Analyze(symbol string, s model.Series, opts Options) (*model.AnalysisResult, error) {
	if len(s) == 0 {
		return nil, ErrEmptySeries
	}

	res := &model.AnalysisResult{
		Symbol:    symbol,
		FetchedAt: time.Now().UTC(),
		Series:    s,
	}

	prices := s.Prices()
	for _, period := range opts.MAPeriods {
		values, err := indicator.SMA(prices, period)
		if err != nil {
			return nil, fmt.Errorf("sma period %d: %w", period, err)
		}
		res.Overlays = append(res.Overlays, model.MAOverlay{Period: period, Values: values})
	}

	pts, err := swing.Find(s, opts.SwingWindow)
	if err != nil {
		return nil, fmt.Errorf("swing detection: %w", err)
	}
	res.SwingHighs = pts.Highs
	res.SwingLows = pts.Lows

	res.Levels, err = levels.Resolve(s, opts.Levels)
	if err != nil {
		return nil, fmt.Errorf("level resolution: %w", err)
	}

	res.Trends = trend.Build(pts, len(s))
	return res, nil
}
