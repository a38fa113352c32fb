// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
	SessionBackendSQLite = "sqlite"
	SessionBackendBadger = "badger"
)

// Tracing exporters.
const (
	TracingExporterGRPC = "grpc"
	TracingExporterHTTP = "http"
)

// DefaultSecretKey signs CSRF tokens and session cookies when nothing else is configured.
const DefaultSecretKey = "hard to guess string"

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version string

	ListenAddr  string
	MetricsAddr string // empty serves /metrics on the main listener
	SecretKey   string

	LogLevel   string
	LogService string

	TrustedProxies []string
	AllowedOrigins []string

	ShutdownTimeout time.Duration

	CSRF      CSRFConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

// CSRFConfig controls form token signing.
type CSRFConfig struct {
	// TimeLimit is the maximum token age. Zero disables expiry.
	TimeLimit time.Duration
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	Backend    string
	TTL        time.Duration
	CookieName string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SQLitePath string
	BadgerDir  string
}

// RateLimitConfig configures the global per-IP limiter.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig represents the YAML configuration structure
type FileConfig struct {
	ListenAddr        string   `yaml:"listenAddr,omitempty"`
	MetricsListenAddr string   `yaml:"metricsListenAddr,omitempty"`
	SecretKey         string   `yaml:"secretKey,omitempty"`
	LogLevel          string   `yaml:"logLevel,omitempty"`
	LogService        string   `yaml:"logService,omitempty"`
	TrustedProxies    []string `yaml:"trustedProxies,omitempty"`
	AllowedOrigins    []string `yaml:"allowedOrigins,omitempty"`
	ShutdownTimeout   string   `yaml:"shutdownTimeout,omitempty"` // e.g. "10s"

	CSRF      CSRFFileConfig      `yaml:"csrf,omitempty"`
	Session   SessionFileConfig   `yaml:"session,omitempty"`
	RateLimit RateLimitFileConfig `yaml:"rateLimit,omitempty"`
	Tracing   TracingFileConfig   `yaml:"tracing,omitempty"`
}

// CSRFFileConfig is the YAML form of CSRFConfig.
type CSRFFileConfig struct {
	TimeLimit string `yaml:"timeLimit,omitempty"` // e.g. "1h", "0" disables expiry
}

// SessionFileConfig is the YAML form of SessionConfig.
type SessionFileConfig struct {
	Backend    string           `yaml:"backend,omitempty"`
	TTL        string           `yaml:"ttl,omitempty"`
	CookieName string           `yaml:"cookieName,omitempty"`
	Redis      RedisFileConfig  `yaml:"redis,omitempty"`
	SQLite     SQLiteFileConfig `yaml:"sqlite,omitempty"`
	Badger     BadgerFileConfig `yaml:"badger,omitempty"`
}

// RedisFileConfig holds redis connection settings.
type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// BadgerFileConfig holds the badger data directory.
type BadgerFileConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// SQLiteFileConfig holds the sqlite database location.
type SQLiteFileConfig struct {
	Path string `yaml:"path,omitempty"`
}

// RateLimitFileConfig is the YAML form of RateLimitConfig.
type RateLimitFileConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Requests int    `yaml:"requests,omitempty"`
	Window   string `yaml:"window,omitempty"`
}

// TracingFileConfig is the YAML form of TracingConfig.
type TracingFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
