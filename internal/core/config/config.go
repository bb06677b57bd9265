package config

import (
	"time"

	redisclient "github.com/vietddude/matchfeed/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Matching MatchingConfig     `yaml:"matching"`
	Breaker  BreakerConfig      `yaml:"breaker"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds health/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MatchingConfig holds settings for the matching service client.
type MatchingConfig struct {
	BaseURL          string        `yaml:"base_url"`
	AuthToken        string        `yaml:"auth_token"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`      // per-request deadline
	PreloadBatchSize int           `yaml:"preload_batch_size"` // candidates per background prefetch
	DeclineDelay     time.Duration `yaml:"decline_delay"`      // pause before re-offering after a decline
}

// BreakerConfig holds circuit breaker tuning.
type BreakerConfig struct {
	Threshold int           `yaml:"threshold"` // consecutive failures before opening
	Cooldown  time.Duration `yaml:"cooldown"`  // open-state duration before a trial call
}
