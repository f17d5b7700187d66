// Package config handles loading and validating the application
// configuration from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration for the demo host.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Paapi     PaapiConfig     `yaml:"paapi"`
	Selection SelectionConfig `yaml:"selection"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PaapiConfig defines PaapiAdapter settings (spec.md §4.7, §5).
type PaapiConfig struct {
	AccessKey       string        `yaml:"access_key"`
	SecretKey       string        `yaml:"secret_key"`
	PartnerTag      string        `yaml:"partner_tag"`
	Region          string        `yaml:"region"`
	RatePerSecond   float64       `yaml:"rate_per_second"`
	QuotaLimit      int64         `yaml:"quota_limit"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// SelectionConfig defines the selection pipeline's tunables (spec.md §4.5,
// §4.6).
type SelectionConfig struct {
	Deadline        time.Duration `yaml:"deadline"`
	AnalyzerWorkers int           `yaml:"analyzer_workers"`
	EnableEnrichment bool         `yaml:"enable_enrichment"`
	SearchCacheTTL  time.Duration `yaml:"search_cache_ttl"`
}

// WatchConfig defines the watch evaluator and scheduler's tunables
// (spec.md §4.8).
type WatchConfig struct {
	PriceDropThreshold float64       `yaml:"price_drop_threshold"`
	FailThreshold      int           `yaml:"fail_threshold"`
	PriceCriticalEvery time.Duration `yaml:"price_critical_every"`
	DigestEvery        time.Duration `yaml:"digest_every"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment
// variable substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyPaapiDefaults(&cfg.Paapi)
	applySelectionDefaults(&cfg.Selection)
	applyWatchDefaults(&cfg.Watch)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyPaapiDefaults(p *PaapiConfig) {
	if p.Region == "" {
		p.Region = "in"
	}
	if p.RatePerSecond == 0 {
		p.RatePerSecond = 1.0
	}
	if p.QuotaLimit == 0 {
		p.QuotaLimit = 8640
	}
	if p.BreakerFailures == 0 {
		p.BreakerFailures = 5
	}
	if p.BreakerCooldown == 0 {
		p.BreakerCooldown = 60 * time.Second
	}
}

func applySelectionDefaults(s *SelectionConfig) {
	if s.Deadline == 0 {
		s.Deadline = 15 * time.Second
	}
	if s.AnalyzerWorkers == 0 {
		s.AnalyzerWorkers = 8
	}
	if s.SearchCacheTTL == 0 {
		s.SearchCacheTTL = 10 * time.Minute
	}
}

func applyWatchDefaults(w *WatchConfig) {
	if w.PriceDropThreshold == 0 {
		w.PriceDropThreshold = 0.95
	}
	if w.FailThreshold == 0 {
		w.FailThreshold = 3
	}
	if w.PriceCriticalEvery == 0 {
		w.PriceCriticalEvery = 10 * time.Minute
	}
	if w.DigestEvery == 0 {
		w.DigestEvery = 24 * time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Paapi.AccessKey == "" {
		errs = append(errs, fmt.Errorf("paapi.access_key is required"))
	}
	if cfg.Paapi.SecretKey == "" {
		errs = append(errs, fmt.Errorf("paapi.secret_key is required"))
	}
	if cfg.Paapi.PartnerTag == "" {
		errs = append(errs, fmt.Errorf("paapi.partner_tag is required"))
	}
	if cfg.Watch.PriceDropThreshold <= 0 || cfg.Watch.PriceDropThreshold >= 1 {
		errs = append(errs, fmt.Errorf("watch.price_drop_threshold must be in (0,1), got %v", cfg.Watch.PriceDropThreshold))
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
