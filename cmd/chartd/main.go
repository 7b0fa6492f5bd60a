package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chartlens/config"
	"chartlens/internal/engine"
	"chartlens/internal/gateway"
	"chartlens/internal/levels"
	"chartlens/internal/logger"
	"chartlens/internal/metrics"
	"chartlens/internal/quote"
	"chartlens/internal/refresh"
	"chartlens/internal/scheduler"
	redisstore "chartlens/internal/store/redis"
	"chartlens/internal/store/sqlite"
	"chartlens/pkg/yahoo"

	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	slogger := logger.Init("chartd", parseLogLevel(getEnv("LOG_LEVEL", "info")))
	slogger.Info("starting")

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("[chartd] config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[chartd] config invalid: %v", err)
	}

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.Server.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Upstream quote client ----
	yc, err := yahoo.New(yahoo.Config{
		BaseURL:    cfg.DataSource.BaseURL,
		ProxyURL:   cfg.DataSource.Proxy,
		Timeout:    time.Duration(cfg.DataSource.TimeoutSec) * time.Second,
		RatePerMin: cfg.DataSource.RatePerMin,
		MaxRetries: uint64(cfg.DataSource.MaxRetries),
	})
	if err != nil {
		log.Fatalf("[chartd] quote client init failed: %v", err)
	}

	var fetcher quote.Fetcher = quote.NewYahooFetcher(yc)

	// ---- Optional Redis quote cache ----
	if cfg.Redis.Addr != "" {
		cache, err := redisstore.NewCache(redisstore.CacheConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Printf("[chartd] WARNING: redis init failed: %v (continuing without cache)", err)
			health.SetRedisConnected(false)
		} else {
			defer cache.Close()
			health.SetRedisConnected(true)
			ttl := time.Duration(cfg.DataSource.CacheTTLMin) * time.Minute
			fetcher = quote.NewCachedFetcher(fetcher, cache, ttl, slogger)
		}
	}

	// ---- Analysis journal (write-only ops log) ----
	var journal refresh.Journal
	os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755)
	j, err := sqlite.New(cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[chartd] WARNING: journal init failed: %v (continuing without journal)", err)
		health.SetSQLiteOK(false)
	} else {
		defer j.Close()
		health.SetSQLiteOK(true)
		journal = j
	}

	// ---- Refresh service ----
	levelOpts := levels.DefaultOptions()
	levelOpts.Strategy = levels.Strategy(cfg.Analysis.Levels.Strategy)
	if cfg.Analysis.Levels.ScanWindow > 0 {
		levelOpts.ScanWindow = cfg.Analysis.Levels.ScanWindow
	}
	if cfg.Analysis.Levels.ProximityBand > 0 {
		levelOpts.ProximityBand = cfg.Analysis.Levels.ProximityBand
	}
	if cfg.Analysis.Levels.DedupTolerance > 0 {
		levelOpts.DedupTolerance = cfg.Analysis.Levels.DedupTolerance
	}
	if cfg.Analysis.Levels.TouchTolerance > 0 {
		levelOpts.TouchTolerance = cfg.Analysis.Levels.TouchTolerance
	}
	if cfg.Analysis.Levels.MaxPerSide > 0 {
		levelOpts.MaxPerSide = cfg.Analysis.Levels.MaxPerSide
	}
	levelOpts.MAPeriods = cfg.Analysis.MAPeriods

	svc := refresh.NewService(fetcher, refresh.Options{
		Symbols:      cfg.Symbols,
		LookbackDays: cfg.LookbackDays,
		Engine: engine.Options{
			MAPeriods:   cfg.Analysis.MAPeriods,
			SwingWindow: cfg.Analysis.SwingWindow,
			Levels:      levelOpts,
		},
	}, prom, health, journal, slogger)

	// ---- WebSocket hub ----
	hub := gateway.NewHub(prom)
	svc.Subscribe(hub.Publish)

	// ---- Scheduler ----
	sched := scheduler.New(ctx, svc, slogger)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[chartd] register refresh task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// ---- Initial refresh so the first page load has data ----
	go svc.RefreshAll(ctx)

	// ---- HTTP server ----
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, svc, map[string]interface{}{
		"symbols":       cfg.Symbols,
		"lookback_days": cfg.LookbackDays,
		"ma_periods":    cfg.Analysis.MAPeriods,
		"swing_window":  cfg.Analysis.SwingWindow,
		"strategy":      cfg.Analysis.Levels.Strategy,
	}, time.Now())

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		slogger.Info("http server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[chartd] http server: %v", err)
		}
	}()

	<-sigCh
	slogger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
	slogger.Info("stopped")
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
