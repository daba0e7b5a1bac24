// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Sources   SourcesConfig   `yaml:"sources"`
	Predictor PredictorConfig `yaml:"predictor"`
	Audit     AuditConfig     `yaml:"audit"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// SourcesConfig defines the market data providers queried during a valuation.
type SourcesConfig struct {
	Timeout    time.Duration   `yaml:"timeout"`
	CarsDirect VendorConfig    `yaml:"carsdirect"`
	AutoLender VendorConfig    `yaml:"autolender"`
	Static     StaticConfig    `yaml:"static"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// VendorConfig defines settings for one external listing vendor.
type VendorConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// StaticConfig toggles the built-in fixture source, used for local
// development and as a floor when vendors are down.
type StaticConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RateLimitConfig defines vendor API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// PredictorConfig selects the base value predictor.
type PredictorConfig struct {
	Backend    string        `yaml:"backend"` // heuristic, remote
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"api_key"`
	Calibrated bool          `yaml:"calibrated"`
	Timeout    time.Duration `yaml:"timeout"`
}

// AuditConfig defines audit trail retention and delivery settings.
type AuditConfig struct {
	MaxEntries    int           `yaml:"max_entries"`
	RetentionDays int           `yaml:"retention_days"`
	Webhook       WebhookConfig `yaml:"webhook"`
	ErrorMonitor  WebhookConfig `yaml:"error_monitor"`
	Discord       DiscordConfig `yaml:"discord"`
}

// WebhookConfig defines audit webhook delivery settings.
type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// DiscordConfig defines Discord notification settings for audit events.
type DiscordConfig struct {
	Enabled       bool   `yaml:"enabled"`
	WebhookURL    string `yaml:"webhook_url"`
	IncludeStarts bool   `yaml:"include_starts"`
}

// ScheduleConfig defines cron intervals for background maintenance.
type ScheduleConfig struct {
	AuditCleanupInterval time.Duration `yaml:"audit_cleanup_interval"`
	StatsLogInterval     time.Duration `yaml:"stats_log_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
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
	applyDatabaseDefaults(&cfg.Database)
	applySourceDefaults(&cfg.Sources)
	applyPredictorDefaults(&cfg.Predictor)
	applyAuditDefaults(&cfg.Audit)
	applyScheduleDefaults(&cfg.Schedule)
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

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applySourceDefaults(s *SourcesConfig) {
	if s.Timeout == 0 {
		s.Timeout = 5 * time.Second
	}
	applyRateLimitDefaults(&s.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 5.0
	}
	if r.Burst == 0 {
		r.Burst = 10
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 5000
	}
}

func applyPredictorDefaults(p *PredictorConfig) {
	if p.Backend == "" {
		p.Backend = "heuristic"
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
}

func applyAuditDefaults(a *AuditConfig) {
	if a.MaxEntries == 0 {
		a.MaxEntries = 10000
	}
	if a.RetentionDays == 0 {
		a.RetentionDays = 30
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.AuditCleanupInterval == 0 {
		s.AuditCleanupInterval = 6 * time.Hour
	}
	if s.StatsLogInterval == 0 {
		s.StatsLogInterval = 1 * time.Hour
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

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Sources.CarsDirect.Enabled {
		if cfg.Sources.CarsDirect.BaseURL == "" {
			errs = append(errs, fmt.Errorf("sources.carsdirect.base_url is required when enabled"))
		}
		if cfg.Sources.CarsDirect.APIKey == "" {
			errs = append(errs, fmt.Errorf("sources.carsdirect.api_key is required when enabled"))
		}
	}
	if cfg.Sources.AutoLender.Enabled {
		if cfg.Sources.AutoLender.BaseURL == "" {
			errs = append(errs, fmt.Errorf("sources.autolender.base_url is required when enabled"))
		}
		if cfg.Sources.AutoLender.APIKey == "" {
			errs = append(errs, fmt.Errorf("sources.autolender.api_key is required when enabled"))
		}
	}

	switch cfg.Predictor.Backend {
	case "heuristic":
		// Self-contained, nothing external to check.
	case "remote":
		if cfg.Predictor.Endpoint == "" {
			errs = append(
				errs,
				fmt.Errorf("predictor.endpoint is required when backend is remote"),
			)
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"predictor.backend must be one of: heuristic, remote (got %q)",
				cfg.Predictor.Backend,
			),
		)
	}

	if cfg.Audit.Webhook.Enabled && cfg.Audit.Webhook.URL == "" {
		errs = append(errs, fmt.Errorf("audit.webhook.url is required when enabled"))
	}
	if cfg.Audit.ErrorMonitor.Enabled && cfg.Audit.ErrorMonitor.URL == "" {
		errs = append(errs, fmt.Errorf("audit.error_monitor.url is required when enabled"))
	}
	if cfg.Audit.Discord.Enabled && cfg.Audit.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("audit.discord.webhook_url is required when enabled"))
	}

	return errors.Join(errs...)
}
