package series

import (
	"errors"
	"testing"
)

func fp(v float64) *float64 { return &v }
func ip(v int64) *int64     { return &v }

// day returns a unix timestamp n days after 2024-01-01 UTC.
func day(n int) int64 {
	const base = 1704067200 // 2024-01-01T00:00:00Z
	return base + int64(n)*86400
}

func TestNormalize_DropsNullsKeepsOrder(t *testing.T) {
	raw := Raw{
		Timestamps: []int64{day(0), day(1), day(2), day(3)},
		Closes:     []*float64{fp(100), nil, fp(102), fp(103)},
		Volumes:    []*int64{ip(10), nil, ip(30), ip(40)},
	}
	s, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 3 {
		t.Fatalf("expected 3 points, got %d", len(s))
	}
	if s[0].Price != 100 || s[1].Price != 102 || s[2].Price != 103 {
		t.Fatalf("unexpected prices: %+v", s)
	}
	if s[0].Date != "2024-01-01" || s[1].Date != "2024-01-03" {
		t.Fatalf("unexpected dates: %q %q", s[0].Date, s[1].Date)
	}
	if s[1].Volume != 30 {
		t.Fatalf("expected volume 30, got %d", s[1].Volume)
	}
}

func TestNormalize_DropsNonPositivePrices(t *testing.T) {
	raw := Raw{
		Timestamps: []int64{day(0), day(1), day(2)},
		Closes:     []*float64{fp(0), fp(-5), fp(101)},
	}
	s, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 1 || s[0].Price != 101 {
		t.Fatalf("expected single point with price 101, got %+v", s)
	}
}

func TestNormalize_SortsAndDedupsDays(t *testing.T) {
	// Out of order, plus two timestamps on the same calendar day.
	raw := Raw{
		Timestamps: []int64{day(2), day(0), day(0) + 3600, day(1)},
		Closes:     []*float64{fp(103), fp(100), fp(999), fp(102)},
	}
	s, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 3 {
		t.Fatalf("expected 3 points after dedup, got %d", len(s))
	}
	for i := 1; i < len(s); i++ {
		if s[i-1].Date >= s[i].Date {
			t.Fatalf("dates not strictly ascending: %q >= %q", s[i-1].Date, s[i].Date)
		}
	}
	// First occurrence on the duplicate day wins.
	if s[0].Price != 100 {
		t.Fatalf("expected first occurrence (100) kept, got %.1f", s[0].Price)
	}
}

func TestNormalize_EmptyResultIsError(t *testing.T) {
	raw := Raw{
		Timestamps: []int64{day(0), day(1)},
		Closes:     []*float64{nil, nil},
	}
	_, err := Normalize(raw)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestNormalize_MismatchedLengths(t *testing.T) {
	raw := Raw{
		Timestamps: []int64{day(0), day(1)},
		Closes:     []*float64{fp(100)},
	}
	if _, err := Normalize(raw); err == nil {
		t.Fatal("expected error for mismatched column lengths")
	}

	raw = Raw{
		Timestamps: []int64{day(0)},
		Closes:     []*float64{fp(100)},
		Highs:      []*float64{fp(101), fp(102)},
	}
	if _, err := Normalize(raw); err == nil {
		t.Fatal("expected error for mismatched optional column length")
	}
}
