package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chartlens/internal/engine"
	"chartlens/internal/levels"
	"chartlens/internal/model"
)

// fakeFetcher serves a canned series and can block individual calls on
// a gate so tests can force out-of-order resolution.
type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	gates  []chan struct{}
	series model.Series
	err    error
}

func (f *fakeFetcher) FetchDaily(ctx context.Context, symbol string, days int) (model.Series, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	var gate chan struct{}
	if idx < len(f.gates) {
		gate = f.gates[idx]
	}
	err := f.err
	series := f.series
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return series, nil
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testSeries(n int) model.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, n)
	for i := range s {
		price := 100.0 + float64(i%10)
		s[i] = model.PricePoint{
			Date:   base.AddDate(0, 0, i).Format(model.DateLayout),
			Price:  price,
			High:   price + 1,
			Low:    price - 1,
			Volume: 1000,
		}
	}
	return s
}

func testOptions(symbols ...string) Options {
	return Options{
		Symbols:      symbols,
		LookbackDays: 90,
		Engine: engine.Options{
			MAPeriods:   []int{5},
			SwingWindow: 2,
			Levels:      levels.DefaultOptions(),
		},
	}
}

func TestRefresh_AppliesResult(t *testing.T) {
	f := &fakeFetcher{series: testSeries(60)}
	svc := NewService(f, testOptions("AAPL"), nil, nil, nil, nil)

	if err := svc.Refresh(context.Background(), "AAPL"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	res := svc.Latest("AAPL")
	if res == nil {
		t.Fatal("expected a latest result after refresh")
	}
	if res.Generation != 1 {
		t.Errorf("expected generation 1, got %d", res.Generation)
	}
	if len(res.Series) != 60 {
		t.Errorf("expected 60 points, got %d", len(res.Series))
	}
	if len(res.Overlays) != 1 {
		t.Errorf("expected 1 overlay, got %d", len(res.Overlays))
	}
}

func TestRefresh_LastIssuedWins(t *testing.T) {
	slow := make(chan struct{})
	fast := make(chan struct{})
	close(fast)
	f := &fakeFetcher{series: testSeries(60), gates: []chan struct{}{slow, fast}}
	svc := NewService(f, testOptions("AAPL"), nil, nil, nil, nil)

	done := make(chan error, 1)
	go func() {
		done <- svc.Refresh(context.Background(), "AAPL")
	}()

	// Wait for the first cycle to take its generation and park in fetch.
	deadline := time.After(2 * time.Second)
	for f.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first fetch never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	// Second cycle completes first and applies generation 2.
	if err := svc.Refresh(context.Background(), "AAPL"); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if got := svc.Latest("AAPL").Generation; got != 2 {
		t.Fatalf("expected generation 2 applied, got %d", got)
	}

	// Release the first cycle; its result is stale and must not apply.
	close(slow)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if got := svc.Latest("AAPL").Generation; got != 2 {
		t.Errorf("stale result overwrote newer one: generation %d", got)
	}

	cycles := svc.RecentCycles()
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycle records, got %d", len(cycles))
	}
	var stale int
	for _, c := range cycles {
		if c.Stale {
			stale++
		}
	}
	if stale != 1 {
		t.Errorf("expected exactly 1 stale cycle record, got %d", stale)
	}
}

func TestRefresh_ErrorRetainedAndCleared(t *testing.T) {
	f := &fakeFetcher{series: testSeries(60), err: errors.New("upstream down")}
	svc := NewService(f, testOptions("AAPL"), nil, nil, nil, nil)

	if err := svc.Refresh(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected refresh error")
	}
	if svc.LastError("AAPL") == nil {
		t.Fatal("expected last error to be retained")
	}
	if svc.Latest("AAPL") != nil {
		t.Error("failed cycle must not publish a result")
	}

	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()

	if err := svc.Refresh(context.Background(), "AAPL"); err != nil {
		t.Fatalf("refresh after recovery: %v", err)
	}
	if svc.LastError("AAPL") != nil {
		t.Error("successful cycle must clear the last error")
	}
}

func TestRefreshAll(t *testing.T) {
	f := &fakeFetcher{series: testSeries(60)}
	svc := NewService(f, testOptions("AAPL", "MSFT", "GOOG"), nil, nil, nil, nil)

	svc.RefreshAll(context.Background())

	for _, sym := range []string{"AAPL", "MSFT", "GOOG"} {
		if svc.Latest(sym) == nil {
			t.Errorf("expected result for %s", sym)
		}
	}
}

func TestSubscribe(t *testing.T) {
	f := &fakeFetcher{series: testSeries(60)}
	svc := NewService(f, testOptions("AAPL"), nil, nil, nil, nil)

	var mu sync.Mutex
	var got []*model.AnalysisResult
	svc.Subscribe(func(res *model.AnalysisResult) {
		mu.Lock()
		got = append(got, res)
		mu.Unlock()
	})

	if err := svc.Refresh(context.Background(), "AAPL"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if got[0].Symbol != "AAPL" {
		t.Errorf("expected AAPL, got %s", got[0].Symbol)
	}
}
