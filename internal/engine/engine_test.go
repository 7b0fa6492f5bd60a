package engine

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"chartlens/internal/levels"
	"chartlens/internal/model"
)

func seriesOf(prices ...float64) model.Series {
	s := make(model.Series, len(prices))
	for i, p := range prices {
		s[i] = model.PricePoint{
			Date:  fmt.Sprintf("2024-%02d-%02d", i/28+1, i%28+1),
			Price: p,
		}
	}
	return s
}

func testOpts() Options {
	opts := DefaultOptions()
	opts.MAPeriods = []int{3}
	opts.SwingWindow = 1
	opts.Levels.SwingWindow = 1
	opts.Levels.ScanWindow = 60
	return opts
}

func TestAnalyze_EmptySeries(t *testing.T) {
	if _, err := Analyze("TEST", nil, testOpts()); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestAnalyze_SinglePointIsDegenerate(t *testing.T) {
	// One point: no MA values, no swings, no levels, no trends — and
	// no error, whatever the configured windows.
	res, err := Analyze("TEST", seriesOf(100), testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Overlays) != 1 || len(res.Overlays[0].Values) != 1 || !math.IsNaN(res.Overlays[0].Values[0]) {
		t.Fatalf("expected single NaN overlay value, got %+v", res.Overlays)
	}
	if len(res.SwingHighs) != 0 || len(res.SwingLows) != 0 {
		t.Fatalf("expected no swings, got %+v", res)
	}
	if len(res.Levels) != 0 || len(res.Trends) != 0 {
		t.Fatalf("expected no levels or trends, got %+v", res)
	}
}

func TestAnalyze_OverlayLengthsMatchSeries(t *testing.T) {
	s := seriesOf(1, 2, 3, 4, 5, 6, 7, 8)
	opts := testOpts()
	opts.MAPeriods = []int{2, 3, 20}
	res, err := Analyze("TEST", s, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Overlays) != 3 {
		t.Fatalf("expected 3 overlays, got %d", len(res.Overlays))
	}
	for _, ov := range res.Overlays {
		if len(ov.Values) != len(s) {
			t.Errorf("overlay %d: length %d != series length %d", ov.Period, len(ov.Values), len(s))
		}
		for i := 0; i < ov.Period-1 && i < len(ov.Values); i++ {
			if !math.IsNaN(ov.Values[i]) {
				t.Errorf("overlay %d: entry %d should be NaN", ov.Period, i)
			}
		}
	}
}

func TestAnalyze_BadPeriodIsError(t *testing.T) {
	opts := testOpts()
	opts.MAPeriods = []int{-1}
	if _, err := Analyze("TEST", seriesOf(1, 2, 3), opts); err == nil {
		t.Fatal("expected error for negative period")
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	prices := make([]float64, 150)
	for i := range prices {
		prices[i] = 500 + rng.Float64()*50 - 25
	}
	s := seriesOf(prices...)

	a, err := Analyze("TEST", s, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Analyze("TEST", s, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a.SwingHighs, b.SwingHighs) || !reflect.DeepEqual(a.SwingLows, b.SwingLows) {
		t.Fatal("swing points differ between identical runs")
	}
	if !reflect.DeepEqual(a.Levels, b.Levels) {
		t.Fatal("levels differ between identical runs")
	}
	if !reflect.DeepEqual(a.Trends, b.Trends) {
		t.Fatal("trends differ between identical runs")
	}
}

func TestAnalyze_RangeStrategyWiredThrough(t *testing.T) {
	opts := testOpts()
	opts.Levels = levels.Options{Strategy: levels.StrategyRange, ScanWindow: 10, Margin: 0.01}
	s := seriesOf(95, 110, 90, 99, 100)
	res, err := Analyze("TEST", s, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Levels) != 2 {
		t.Fatalf("expected range strategy extremes, got %v", res.Levels)
	}
}

func TestAnalyze_TrendFromAscendingLows(t *testing.T) {
	// Lows at indices 2 (100), 6 (104), 10 (108) with peaks between.
	s := seriesOf(115, 112, 100, 113, 116, 114, 104, 117, 120, 118, 108, 121, 124)
	res, err := Analyze("TEST", s, testOpts())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var support *model.TrendSegment
	for i := range res.Trends {
		if res.Trends[i].Kind == model.Support {
			support = &res.Trends[i]
		}
	}
	if support == nil {
		t.Fatalf("expected a support trend line, got %v", res.Trends)
	}
	if support.Slope <= 0 {
		t.Fatalf("expected positive slope, got %.4f", support.Slope)
	}
	if support.EndIndex != len(s)-1 {
		t.Fatalf("expected extension to last index %d, got %d", len(s)-1, support.EndIndex)
	}
}
