package swing

import (
	"errors"
	"fmt"
	"testing"

	"chartlens/internal/model"
)

func seriesOf(prices ...float64) model.Series {
	s := make(model.Series, len(prices))
	for i, p := range prices {
		s[i] = model.PricePoint{
			Date:  fmt.Sprintf("2024-01-%02d", i+1),
			Price: p,
		}
	}
	return s
}

func indices(pts []model.SwingPoint) []int {
	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = p.Index
	}
	return out
}

func TestFind_LiteralSeries(t *testing.T) {
	// Highs at indices 1, 4, 6; lows at 3 and 5 (window=1, non-strict).
	s := seriesOf(1, 5, 2, 1, 5, 1, 5, 2, 1)
	pts, err := Find(s, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantHighs := []int{1, 4, 6}
	gotHighs := indices(pts.Highs)
	if len(gotHighs) != len(wantHighs) {
		t.Fatalf("expected highs at %v, got %v", wantHighs, gotHighs)
	}
	for i := range wantHighs {
		if gotHighs[i] != wantHighs[i] {
			t.Errorf("high %d: expected index %d, got %d", i, wantHighs[i], gotHighs[i])
		}
	}
	wantLows := []int{3, 5}
	gotLows := indices(pts.Lows)
	if len(gotLows) != len(wantLows) {
		t.Fatalf("expected lows at %v, got %v", wantLows, gotLows)
	}
}

func TestFind_BoundaryZonesExcluded(t *testing.T) {
	// Global maximum sits at index 0 and global minimum at the end;
	// neither may be reported.
	s := seriesOf(100, 90, 95, 85, 80, 70)
	for _, window := range []int{1, 2} {
		pts, err := Find(s, window)
		if err != nil {
			t.Fatalf("window %d: %v", window, err)
		}
		for _, p := range append(pts.Highs, pts.Lows...) {
			if p.Index < window || p.Index >= len(s)-window {
				t.Errorf("window %d: swing point at boundary index %d", window, p.Index)
			}
		}
	}
}

func TestFind_PlateauQualifiesAtEveryMember(t *testing.T) {
	// Flat top at indices 2 and 3: non-strict comparison marks both.
	s := seriesOf(1, 2, 5, 5, 2, 1)
	pts, err := Find(s, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := indices(pts.Highs)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("expected plateau highs at [2 3], got %v", got)
	}
}

func TestFind_ShortSeriesEmpty(t *testing.T) {
	// length <= 2*window yields empty results, not an error.
	s := seriesOf(1, 2, 3, 4)
	pts, err := Find(s, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts.Highs) != 0 || len(pts.Lows) != 0 {
		t.Fatalf("expected empty results, got %+v", pts)
	}
}

func TestFind_BadWindow(t *testing.T) {
	if _, err := Find(seriesOf(1, 2, 3), 0); !errors.Is(err, ErrBadWindow) {
		t.Fatalf("expected ErrBadWindow, got %v", err)
	}
}

func TestFind_ChronologicalOrder(t *testing.T) {
	s := seriesOf(1, 9, 2, 8, 3, 7, 4, 6, 5)
	pts, err := Find(s, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(pts.Highs); i++ {
		if pts.Highs[i-1].Index >= pts.Highs[i].Index {
			t.Fatal("highs not ascending by index")
		}
	}
	for i := 1; i < len(pts.Lows); i++ {
		if pts.Lows[i-1].Index >= pts.Lows[i].Index {
			t.Fatal("lows not ascending by index")
		}
	}
}

func TestLastN(t *testing.T) {
	pts := []model.SwingPoint{{Index: 1}, {Index: 2}, {Index: 3}}
	if got := LastN(pts, 2); len(got) != 2 || got[0].Index != 2 {
		t.Fatalf("expected last two points, got %v", got)
	}
	if got := LastN(pts, 5); len(got) != 3 {
		t.Fatalf("expected all points, got %v", got)
	}
	if got := LastN(pts, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
