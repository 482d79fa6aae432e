// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/finpulse/finpulse/internal/insight"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Upstream  UpstreamConfig   `yaml:"upstream"`
	Redis     RedisConfig      `yaml:"redis"`
	Postgres  PostgresConfig   `yaml:"postgres"`
	Advisor   AdvisorConfig    `yaml:"advisor"`
	Threshold ThresholdProfile `yaml:"thresholds"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSec int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSec  int    `yaml:"idle_timeout_seconds"`
}

// ReadTimeout returns the listener read timeout.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the listener write timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSec) * time.Second
}

// IdleTimeout returns the listener idle timeout.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSec) * time.Second
}

// UpstreamConfig holds snapshot aggregator settings.
type UpstreamConfig struct {
	BaseURL           string  `yaml:"base_url"`
	RequestTimeoutSec int     `yaml:"request_timeout_seconds"`
	RatePerSecond     float64 `yaml:"rate_per_second"`
	RateBurst         int     `yaml:"rate_burst"`
	BreakerTimeoutSec int     `yaml:"breaker_timeout_seconds"`
	MaxFailures       uint32  `yaml:"max_failures"`
}

// RedisConfig holds snapshot cache settings. An empty Addr disables
// the cache.
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	TTLSec int    `yaml:"ttl_seconds"`
}

// TTL returns the cache entry lifetime.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSec) * time.Second
}

// PostgresConfig holds persistence settings. An empty DSN disables the
// store.
type PostgresConfig struct {
	DSN             string `yaml:"dsn"`
	QueryTimeoutSec int    `yaml:"query_timeout_seconds"`
}

// QueryTimeout returns the per-query timeout.
func (p PostgresConfig) QueryTimeout() time.Duration {
	return time.Duration(p.QueryTimeoutSec) * time.Second
}

// AdvisorConfig holds Gemini settings. The API key comes from the
// environment, never the file.
type AdvisorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// ThresholdProfile optionally overrides the insight rule cutoffs.
// Fields left nil keep their defaults, so a partial override is valid.
type ThresholdProfile struct {
	RevenueDropPct      *float64 `yaml:"revenue_drop_pct"`
	ProfitDropPct       *float64 `yaml:"profit_drop_pct"`
	ExpensesIncreasePct *float64 `yaml:"expenses_increase_pct"`
	SessionsDropPct     *float64 `yaml:"sessions_drop_pct"`
	UsersDropPct        *float64 `yaml:"users_drop_pct"`
	ConversionsDropPct  *float64 `yaml:"conversions_drop_pct"`
}

// Default returns the production configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8090,
			ReadTimeoutSec:  10,
			WriteTimeoutSec: 10,
			IdleTimeoutSec:  60,
		},
		Upstream: UpstreamConfig{
			RequestTimeoutSec: 10,
			RatePerSecond:     5,
			RateBurst:         10,
			BreakerTimeoutSec: 30,
			MaxFailures:       5,
		},
		Redis: RedisConfig{
			TTLSec: 300,
		},
		Postgres: PostgresConfig{
			QueryTimeoutSec: 5,
		},
		Advisor: AdvisorConfig{
			APIKeyEnv: "GEMINI_API_KEY",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on threshold values that would make the rule
// engine misfire: non-finite numbers, drop cutoffs above zero, or an
// expense-increase cutoff below zero.
func (c *Config) Validate() error {
	drops := map[string]*float64{
		"revenue_drop_pct":     c.Threshold.RevenueDropPct,
		"profit_drop_pct":      c.Threshold.ProfitDropPct,
		"sessions_drop_pct":    c.Threshold.SessionsDropPct,
		"users_drop_pct":       c.Threshold.UsersDropPct,
		"conversions_drop_pct": c.Threshold.ConversionsDropPct,
	}
	for name, v := range drops {
		if v == nil {
			continue
		}
		if !isFinite(*v) {
			return fmt.Errorf("threshold %s: not a finite number", name)
		}
		if *v > 0 {
			return fmt.Errorf("threshold %s: drop cutoff must be <= 0, got %v", name, *v)
		}
	}
	if v := c.Threshold.ExpensesIncreasePct; v != nil {
		if !isFinite(*v) {
			return fmt.Errorf("threshold expenses_increase_pct: not a finite number")
		}
		if *v < 0 {
			return fmt.Errorf("threshold expenses_increase_pct: increase cutoff must be >= 0, got %v", *v)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}

// Thresholds materializes the profile over the engine defaults.
func (c *Config) Thresholds() insight.Thresholds {
	th := insight.DefaultThresholds()
	if v := c.Threshold.RevenueDropPct; v != nil {
		th.RevenueDropPct = *v
	}
	if v := c.Threshold.ProfitDropPct; v != nil {
		th.ProfitDropPct = *v
	}
	if v := c.Threshold.ExpensesIncreasePct; v != nil {
		th.ExpensesIncreasePct = *v
	}
	if v := c.Threshold.SessionsDropPct; v != nil {
		th.SessionsDropPct = *v
	}
	if v := c.Threshold.UsersDropPct; v != nil {
		th.UsersDropPct = *v
	}
	if v := c.Threshold.ConversionsDropPct; v != nil {
		th.ConversionsDropPct = *v
	}
	return th
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
