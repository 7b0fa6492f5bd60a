// Package quote is the input boundary: it turns upstream quote
// payloads into normalized Series values and layers caching on top.
// The analysis engine itself never performs I/O; everything network-
// shaped lives here.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chartlens/internal/model"
	"chartlens/internal/series"
	redisstore "chartlens/internal/store/redis"
	"chartlens/pkg/yahoo"
)

// Fetcher retrieves a normalized daily price series for a symbol
// covering at most the trailing number of days.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, days int) (model.Series, error)
	Name() string
}

// YahooFetcher adapts the Yahoo chart client to the Fetcher interface.
type YahooFetcher struct {
	client *yahoo.Client
}

// NewYahooFetcher wraps an existing chart client.
func NewYahooFetcher(client *yahoo.Client) *YahooFetcher {
	return &YahooFetcher{client: client}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// FetchDaily fetches, normalizes and trims the series to the requested
// window. A payload that normalizes to zero points fails the whole
// cycle with a descriptive error (the upstream range parameter is
// coarser than days, hence the trim).
func (f *YahooFetcher) FetchDaily(ctx context.Context, symbol string, days int) (model.Series, error) {
	chart, err := f.client.DailyHistory(ctx, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	s, err := series.Normalize(series.Raw{
		Timestamps: chart.Timestamps,
		Closes:     chart.Closes,
		Highs:      chart.Highs,
		Lows:       chart.Lows,
		Volumes:    chart.Volumes,
	})
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", symbol, err)
	}
	return s.Tail(days), nil
}

// CachedFetcher decorates a Fetcher with the Redis quote cache.
// Cache failures degrade to a direct fetch; they never fail the cycle.
type CachedFetcher struct {
	next  Fetcher
	cache *redisstore.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCachedFetcher wraps next with the cache. ttl controls how long a
// fetched series is reused before the upstream is consulted again.
func NewCachedFetcher(next Fetcher, cache *redisstore.Cache, ttl time.Duration, log *slog.Logger) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl, log: log}
}

func (f *CachedFetcher) Name() string { return f.next.Name() + "+cache" }

func (f *CachedFetcher) FetchDaily(ctx context.Context, symbol string, days int) (model.Series, error) {
	key := redisstore.Key(symbol, days)

	if data, ok, err := f.cache.Get(ctx, key); err != nil {
		f.log.Warn("quote cache read failed", "symbol", symbol, "err", err)
	} else if ok {
		var s model.Series
		if err := json.Unmarshal(data, &s); err == nil && len(s) > 0 {
			f.log.Debug("quote cache hit", "symbol", symbol, "points", len(s))
			return s, nil
		}
		f.log.Warn("quote cache entry unreadable, refetching", "symbol", symbol)
	}

	s, err := f.next.FetchDaily(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(s); err == nil {
		if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
			f.log.Warn("quote cache write failed", "symbol", symbol, "err", err)
		}
	}
	return s, nil
}
