// Package trend fits simple two-point trend lines through recent swing
// points. Only confirmed structures are worth drawing: ascending
// support and descending resistance; anything else is silently
// discarded.
package trend

import (
	"chartlens/internal/model"
	"chartlens/internal/swing"
)

// maxAnchors is how many of the most recent swing points are
// considered per side; the line runs through the earliest and latest
// of that subset.
const maxAnchors = 3

// Build derives trend segments from detected swing points. The support
// line uses the most recent up-to-3 swing lows and is emitted only
// when its slope is strictly positive; the resistance line mirrors
// this with swing highs and a strictly negative slope. Each emitted
// segment starts at its earliest anchor and is extrapolated forward to
// the last index of the full series. Fewer than two points on a side
// suppresses that line — no output, not an error.
func Build(pts swing.Points, seriesLen int) []model.TrendSegment {
	if seriesLen < 2 {
		return nil
	}
	var out []model.TrendSegment
	if seg, ok := fitLine(swing.LastN(pts.Lows, maxAnchors), model.Support, seriesLen); ok {
		out = append(out, seg)
	}
	if seg, ok := fitLine(swing.LastN(pts.Highs, maxAnchors), model.Resistance, seriesLen); ok {
		out = append(out, seg)
	}
	return out
}

// fitLine computes the closed-form line through the earliest and
// latest anchors and applies the slope-sign filter for the given kind.
func fitLine(anchors []model.SwingPoint, kind model.LevelKind, seriesLen int) (model.TrendSegment, bool) {
	if len(anchors) < 2 {
		return model.TrendSegment{}, false
	}
	first, last := anchors[0], anchors[len(anchors)-1]
	if last.Index == first.Index {
		return model.TrendSegment{}, false
	}
	slope := (last.Price - first.Price) / float64(last.Index-first.Index)
	if kind == model.Support && slope <= 0 {
		return model.TrendSegment{}, false
	}
	if kind == model.Resistance && slope >= 0 {
		return model.TrendSegment{}, false
	}
	return model.TrendSegment{
		Kind:       kind,
		Slope:      slope,
		Intercept:  first.Price - slope*float64(first.Index),
		StartIndex: first.Index,
		EndIndex:   seriesLen - 1,
	}, true
}
