// Package refresh owns the fetch-analyze-apply cycle. Each symbol's
// latest AnalysisResult is an immutable snapshot swapped in atomically;
// readers never observe a partially updated chart.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chartlens/internal/engine"
	"chartlens/internal/logger"
	"chartlens/internal/metrics"
	"chartlens/internal/model"
	"chartlens/internal/quote"
	"chartlens/internal/ringbuf"
)

// Journal receives completed analysis cycles. Writes are fire-and-forget:
// a journal failure never fails a refresh.
type Journal interface {
	Record(res *model.AnalysisResult) error
}

// Subscriber is notified after a result has been applied. Called outside
// the service lock; implementations must not block for long.
type Subscriber func(res *model.AnalysisResult)

// Options configures the refresh service.
type Options struct {
	Symbols      []string
	LookbackDays int
	Engine       engine.Options
}

// Service coordinates concurrent refreshes. Overlapping requests for
// the same symbol are resolved by issue order: each request takes a
// generation number when it starts, and a result whose generation is
// older than the last applied one is dropped, so a slow early fetch
// can never clobber a newer chart.
type Service struct {
	fetcher quote.Fetcher
	opts    Options
	met     *metrics.Metrics
	health  *metrics.HealthStatus
	journal Journal
	log     *slog.Logger
	history *ringbuf.Ring

	mu      sync.RWMutex
	issued  map[string]int64
	applied map[string]int64
	latest  map[string]*model.AnalysisResult
	lastErr map[string]error
	subs    []Subscriber
}

// NewService creates a refresh service. met, health and journal may be
// nil; the service skips them.
func NewService(fetcher quote.Fetcher, opts Options, met *metrics.Metrics, health *metrics.HealthStatus, journal Journal, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		fetcher: fetcher,
		opts:    opts,
		met:     met,
		health:  health,
		journal: journal,
		log:     log,
		history: ringbuf.New(128),
		issued:  make(map[string]int64),
		applied: make(map[string]int64),
		latest:  make(map[string]*model.AnalysisResult),
		lastErr: make(map[string]error),
	}
}

// Subscribe registers a callback for applied results. Not safe to call
// concurrently with Refresh; register subscribers before starting.
func (s *Service) Subscribe(fn Subscriber) {
	s.subs = append(s.subs, fn)
}

// Symbols returns the configured symbol universe.
func (s *Service) Symbols() []string {
	out := make([]string, len(s.opts.Symbols))
	copy(out, s.opts.Symbols)
	return out
}

// Latest returns the most recently applied result for symbol, or nil
// if no cycle has completed yet.
func (s *Service) Latest(symbol string) *model.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[symbol]
}

// LastError returns the error from the most recent failed cycle for
// symbol. A successful cycle clears it.
func (s *Service) LastError(symbol string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr[symbol]
}

// RecentCycles returns summaries of recently completed cycles in
// chronological order, including those dropped as stale.
func (s *Service) RecentCycles() []model.CycleRecord {
	return s.history.Snapshot()
}

// Refresh runs one full cycle for a symbol: fetch, analyze, apply.
// Safe to call concurrently; overlapping cycles for the same symbol
// are serialized by generation at apply time.
func (s *Service) Refresh(ctx context.Context, symbol string) error {
	s.mu.Lock()
	s.issued[symbol]++
	gen := s.issued[symbol]
	s.mu.Unlock()

	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(symbol, time.Now()))

	if s.met != nil {
		s.met.FetchesTotal.WithLabelValues(symbol).Inc()
	}

	series, err := s.fetcher.FetchDaily(ctx, symbol, s.opts.LookbackDays)
	if err != nil {
		if s.met != nil {
			s.met.FetchErrors.WithLabelValues(symbol).Inc()
		}
		s.recordError(symbol, fmt.Errorf("fetch %s: %w", symbol, err))
		return err
	}

	start := time.Now()
	res, err := engine.Analyze(symbol, series, s.opts.Engine)
	if err != nil {
		s.recordError(symbol, fmt.Errorf("analyze %s: %w", symbol, err))
		return err
	}
	if s.met != nil {
		s.met.AnalyzeDur.Observe(time.Since(start).Seconds())
	}
	res.Generation = gen

	record := model.CycleRecord{
		Symbol:     symbol,
		Generation: gen,
		FetchedAt:  res.FetchedAt,
		Duration:   time.Since(start),
		Points:     len(res.Series),
		Levels:     len(res.Levels),
	}

	if !s.apply(res) {
		record.Stale = true
		s.history.Push(record)
		if s.met != nil {
			s.met.StaleDropped.Inc()
		}
		s.log.Debug("dropped stale result",
			append([]any{slog.String("symbol", symbol), slog.Int64("generation", gen)},
				logger.LogWithTrace(ctx)...)...)
		return nil
	}
	s.history.Push(record)

	s.log.Info("refresh applied",
		append([]any{
			slog.String("symbol", symbol),
			slog.Int64("generation", gen),
			slog.Int("points", len(res.Series)),
			slog.Int("levels", len(res.Levels)),
		}, logger.LogWithTrace(ctx)...)...)

	if s.journal != nil {
		if err := s.journal.Record(res); err != nil {
			if s.met != nil {
				s.met.JournalErrors.Inc()
			}
			s.log.Warn("journal write failed", slog.String("symbol", symbol), slog.String("error", err.Error()))
		}
	}

	for _, fn := range s.subs {
		fn(res)
	}
	return nil
}

// RefreshAll fans out one cycle per configured symbol. Per-symbol
// failures are logged and retained; the call itself never fails.
func (s *Service) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, symbol := range s.opts.Symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			if err := s.Refresh(ctx, sym); err != nil {
				s.log.Error("refresh failed", slog.String("symbol", sym), slog.String("error", err.Error()))
			}
		}(symbol)
	}
	wg.Wait()
}

// apply swaps the snapshot in if the result is not stale. Returns false
// when a newer generation was already applied.
func (s *Service) apply(res *model.AnalysisResult) bool {
	s.mu.Lock()
	if res.Generation <= s.applied[res.Symbol] {
		s.mu.Unlock()
		return false
	}
	s.applied[res.Symbol] = res.Generation
	s.latest[res.Symbol] = res
	delete(s.lastErr, res.Symbol)
	s.mu.Unlock()

	if s.met != nil {
		s.met.RefreshTotal.Inc()
		var support, resistance int
		for _, lv := range res.Levels {
			if lv.Kind == model.Support {
				support++
			} else {
				resistance++
			}
		}
		s.met.LevelsEmitted.WithLabelValues(res.Symbol, "support").Set(float64(support))
		s.met.LevelsEmitted.WithLabelValues(res.Symbol, "resistance").Set(float64(resistance))
	}
	if s.health != nil {
		s.health.SetLastRefresh(time.Now())
	}
	return true
}

func (s *Service) recordError(symbol string, err error) {
	s.mu.Lock()
	s.lastErr[symbol] = err
	s.mu.Unlock()
}
