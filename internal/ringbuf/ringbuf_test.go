package ringbuf

import (
	"testing"

	"chartlens/internal/model"
)

func rec(gen int64) model.CycleRecord {
	return model.CycleRecord{Symbol: "AAPL", Generation: gen}
}

func TestNew_RoundsToPowerOfTwo(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{0, 2},
		{1, 2},
		{2, 2},
		{3, 4},
		{5, 8},
		{8, 8},
		{100, 128},
	}
	for _, tt := range tests {
		if got := New(tt.capacity).Cap(); got != tt.want {
			t.Errorf("New(%d).Cap() = %d, want %d", tt.capacity, got, tt.want)
		}
	}
}

func TestPushSnapshot(t *testing.T) {
	r := New(4)

	if got := r.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %d records", len(got))
	}

	r.Push(rec(1))
	r.Push(rec(2))
	r.Push(rec(3))

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 records, got %d", len(snap))
	}
	for i, want := range []int64{1, 2, 3} {
		if snap[i].Generation != want {
			t.Errorf("snap[%d].Generation = %d, want %d", i, snap[i].Generation, want)
		}
	}
}

func TestOverwriteOldest(t *testing.T) {
	r := New(4)
	for gen := int64(1); gen <= 6; gen++ {
		r.Push(rec(gen))
	}

	if r.Len() != 4 {
		t.Fatalf("expected len 4, got %d", r.Len())
	}
	snap := r.Snapshot()
	for i, want := range []int64{3, 4, 5, 6} {
		if snap[i].Generation != want {
			t.Errorf("snap[%d].Generation = %d, want %d", i, snap[i].Generation, want)
		}
	}
}
