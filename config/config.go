// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Symbols      []string `yaml:"symbols"`
	LookbackDays int      `yaml:"lookback_days"`

	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`

	DataSource struct {
		BaseURL     string `yaml:"base_url"`
		Proxy       string `yaml:"proxy"`
		RatePerMin  int    `yaml:"rate_per_min"`
		MaxRetries  int    `yaml:"max_retries"`
		TimeoutSec  int    `yaml:"timeout_sec"`
		CacheTTLMin int    `yaml:"cache_ttl_min"`
	} `yaml:"data_source"`

	Analysis struct {
		MAPeriods   []int `yaml:"ma_periods"`
		SwingWindow int   `yaml:"swing_window"`
		Levels      struct {
			Strategy       string  `yaml:"strategy"`
			ScanWindow     int     `yaml:"scan_window"`
			ProximityBand  float64 `yaml:"proximity_band"`
			DedupTolerance float64 `yaml:"dedup_tolerance"`
			TouchTolerance float64 `yaml:"touch_tolerance"`
			MaxPerSide     int     `yaml:"max_per_side"`
		} `yaml:"levels"`
	} `yaml:"analysis"`

	Server struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; everything
// can come from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = splitList(v)
	}
	if v := os.Getenv("LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LookbackDays = n
		}
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}

	// Defaults
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"AAPL"}
	}
	if cfg.LookbackDays == 0 {
		cfg.LookbackDays = 365
	}
	if cfg.Schedule.RefreshCron == "" {
		// Every 15 minutes (six-field format with seconds)
		cfg.Schedule.RefreshCron = "0 */15 * * * *"
	}
	if cfg.DataSource.RatePerMin == 0 {
		cfg.DataSource.RatePerMin = 30
	}
	if cfg.DataSource.MaxRetries == 0 {
		cfg.DataSource.MaxRetries = 3
	}
	if cfg.DataSource.TimeoutSec == 0 {
		cfg.DataSource.TimeoutSec = 10
	}
	if cfg.DataSource.CacheTTLMin == 0 {
		cfg.DataSource.CacheTTLMin = 10
	}
	if len(cfg.Analysis.MAPeriods) == 0 {
		cfg.Analysis.MAPeriods = []int{20, 50, 200}
	}
	if cfg.Analysis.SwingWindow == 0 {
		cfg.Analysis.SwingWindow = 5
	}
	if cfg.Analysis.Levels.Strategy == "" {
		cfg.Analysis.Levels.Strategy = "swing"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9090"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/chartlens.db"
	}

	normalizeSymbols(cfg)
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols must not be empty")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive")
	}
	for _, p := range c.Analysis.MAPeriods {
		if p < 1 {
			return fmt.Errorf("analysis.ma_periods entries must be >= 1, got %d", p)
		}
	}
	if c.Analysis.SwingWindow < 1 {
		return fmt.Errorf("analysis.swing_window must be >= 1")
	}
	switch c.Analysis.Levels.Strategy {
	case "range", "swing":
	default:
		return fmt.Errorf("analysis.levels.strategy must be \"range\" or \"swing\", got %q", c.Analysis.Levels.Strategy)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeSymbols(cfg *Config) {
	seen := make(map[string]bool)
	out := cfg.Symbols[:0]
	for _, s := range cfg.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	cfg.Symbols = out
}
