// Package metrics exposes Prometheus metrics and a health endpoint for
// the chart analysis service.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analysis pipeline.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec // labels: symbol
	FetchErrors   *prometheus.CounterVec // labels: symbol
	AnalyzeDur    prometheus.Histogram
	RefreshTotal  prometheus.Counter
	StaleDropped  prometheus.Counter
	LevelsEmitted *prometheus.GaugeVec // labels: symbol, kind
	WSClients     prometheus.Gauge
	JournalErrors prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartd_fetches_total",
			Help: "Quote fetches attempted per symbol",
		}, []string{"symbol"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartd_fetch_errors_total",
			Help: "Quote fetches that failed per symbol",
		}, []string{"symbol"}),
		AnalyzeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartd_analyze_duration_seconds",
			Help:    "Full pipeline pass latency per series",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		RefreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartd_refresh_cycles_total",
			Help: "Refresh cycles applied",
		}),
		StaleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartd_stale_results_dropped_total",
			Help: "Superseded refresh results discarded at apply time",
		}),
		LevelsEmitted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chartd_levels_emitted",
			Help: "Levels in the latest applied result (by symbol and kind)",
		}, []string{"symbol", "kind"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartd_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartd_journal_errors_total",
			Help: "Analysis journal write failures",
		}),
	}

	prometheus.MustRegister(
		m.FetchesTotal,
		m.FetchErrors,
		m.AnalyzeDur,
		m.RefreshTotal,
		m.StaleDropped,
		m.LevelsEmitted,
		m.WSClients,
		m.JournalErrors,
	)
	return m
}

// HealthStatus tracks the service's dependency health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	LastRefreshAt  time.Time `json:"last_refresh_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastRefresh(t time.Time) {
	h.mu.Lock()
	h.LastRefreshAt = t
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	refreshAge := ""
	if !h.LastRefreshAt.IsZero() {
		refreshAge = time.Since(h.LastRefreshAt).Round(time.Second).String()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status     string `json:"status"`
		Uptime     string `json:"uptime"`
		Redis      bool   `json:"redis_connected"`
		SQLite     bool   `json:"sqlite_ok"`
		RefreshAge string `json:"last_refresh_age"`
	}{
		Status:     "ok",
		Uptime:     time.Since(h.StartedAt).Round(time.Second).String(),
		Redis:      h.RedisConnected,
		SQLite:     h.SQLiteOK,
		RefreshAge: refreshAge,
	})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)
	return &Server{srv: &http.Server{Addr: addr, Handler: mux}}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
