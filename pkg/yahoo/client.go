// Package yahoo is a minimal client for the Yahoo Finance chart API.
// It fetches daily OHLCV history for a ticker, preserving upstream
// nulls (non-trading gaps) as nil entries so the normalizer can drop
// them explicitly.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Config configures the client.
type Config struct {
	BaseURL   string        // default: query1.finance.yahoo.com
	ProxyURL  string        // optional HTTP proxy
	Timeout   time.Duration // per-request timeout, default 30s
	RatePerMin int          // upstream request budget, default 30/min
	MaxRetries uint64       // retry attempts on transient failure, default 3
}

// Client calls the chart endpoint with retry/backoff and a client-side
// rate limiter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
}

// Chart is the decoded daily history for one symbol. The parallel
// arrays are index-aligned with Timestamps; pointer entries are nil
// where the upstream payload had null.
type Chart struct {
	Symbol     string
	Timestamps []int64
	Closes     []*float64
	Highs      []*float64
	Lows       []*float64
	Volumes    []*int64
}

// chartResponse mirrors the upstream JSON envelope.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	perMin := cfg.RatePerMin
	if perMin <= 0 {
		perMin = 30
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}

	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		limiter:    rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
		maxRetries: retries,
	}, nil
}

// DailyHistory fetches daily bars covering at least the given number
// of calendar days. The upstream range parameter is coarse, so callers
// trim the normalized series to the exact window they need.
func (c *Client) DailyHistory(ctx context.Context, symbol string, days int) (*Chart, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		c.baseURL, url.PathEscape(symbol), rangeFor(days))

	var chart *Chart
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		parsed, err := c.fetch(ctx, symbol, u)
		if err != nil {
			return err
		}
		chart = parsed
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return chart, nil
}

func (c *Client) fetch(ctx context.Context, symbol, u string) (*Chart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("chart read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("chart status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("chart status %d: %s", resp.StatusCode, string(body)))
	}

	chart, err := ParseChart(symbol, body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return chart, nil
}

// ParseChart decodes a chart API payload into parallel arrays.
func ParseChart(symbol string, body []byte) (*Chart, error) {
	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("chart decode: %w", err)
	}
	if cr.Chart.Error != nil {
		return nil, fmt.Errorf("chart api error for %s: %s", symbol, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("no data returned for %s", symbol)
	}
	result := cr.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote block for %s", symbol)
	}
	quote := result.Indicators.Quote[0]
	return &Chart{
		Symbol:     symbol,
		Timestamps: result.Timestamp,
		Closes:     quote.Close,
		Highs:      quote.High,
		Lows:       quote.Low,
		Volumes:    quote.Volume,
	}, nil
}

// rangeFor maps a day count to the coarse upstream range parameter.
// Daily interval supports at most 2y here.
func rangeFor(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}
