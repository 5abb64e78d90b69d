// Package config defines service configuration structures and loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file named
// by MENTORPULSE_CONFIG, then MENTORPULSE_* environment variables.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the in-memory recompute queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the number of batch ids remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// ApprovalThreshold is the minimum 0-10 score counted as approved.
	ApprovalThreshold float64 `koanf:"approval_threshold"`

	// DatabaseURL points at the PostgreSQL record source. Empty disables it.
	DatabaseURL string `koanf:"database_url"`
	// DatasetFile is a YAML dataset used as the refresh source when
	// DatabaseURL is empty.
	DatasetFile string `koanf:"dataset_file"`
	// RefreshOnStart loads the record source once at boot.
	RefreshOnStart bool `koanf:"refresh_on_start"`

	// RedisAddr enables the dashboard cache. Empty disables it.
	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`
	// CacheTTLSeconds is the lifetime of cached dashboards.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		ApprovalThreshold:   7.0,
		CacheTTLSeconds:     300,
	}
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
