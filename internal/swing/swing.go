// Package swing detects local price extrema in a normalized series.
package swing

import (
	"errors"

	"chartlens/internal/model"
)

// ErrBadWindow is returned for a non-positive detection window.
var ErrBadWindow = errors.New("window must be positive")

// Points holds the detected swing highs and lows, each ordered
// ascending by index.
type Points struct {
	Highs []model.SwingPoint
	Lows  []model.SwingPoint
}

// Find scans the series for swing points using a symmetric window.
// Index i is a swing high when its price is >= every price in
// [i-window, i+window]; a swing low when it is <= all of them. The
// comparisons are non-strict, so a flat plateau at the extreme
// qualifies at every member position — callers that want one point per
// plateau deduplicate downstream. The boundary zones of width window
// at both ends are never evaluated: a series of length <= 2*window
// yields empty results, which is not an error.
func Find(s model.Series, window int) (Points, error) {
	if window <= 0 {
		return Points{}, ErrBadWindow
	}

	var pts Points
	for i := window; i < len(s)-window; i++ {
		price := s[i].Price
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if s[j].Price > price {
				isHigh = false
			}
			if s[j].Price < price {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			pts.Highs = append(pts.Highs, model.SwingPoint{
				Index: i,
				Date:  s[i].Date,
				Price: price,
				Kind:  model.SwingHigh,
			})
		}
		if isLow {
			pts.Lows = append(pts.Lows, model.SwingPoint{
				Index: i,
				Date:  s[i].Date,
				Price: price,
				Kind:  model.SwingLow,
			})
		}
	}
	return pts, nil
}

// LastN returns the trailing n points of the given slice without
// copying. Used by consumers that only care about the most recent
// swings.
func LastN(pts []model.SwingPoint, n int) []model.SwingPoint {
	if n <= 0 {
		return nil
	}
	if len(pts) <= n {
		return pts
	}
	return pts[len(pts)-n:]
}
