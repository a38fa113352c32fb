// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the configuration file path, if any.
func (l *Loader) Path() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envStringAlias(key, alias, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	l.ConsumedEnvKeys[alias] = struct{}{}
	return ParseStringWithAlias(key, alias, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file parse -> env overrides -> validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr:      ":8080",
		SecretKey:       DefaultSecretKey,
		LogLevel:        "info",
		LogService:      "greeter",
		ShutdownTimeout: 10 * time.Second,
		CSRF: CSRFConfig{
			TimeLimit: time.Hour,
		},
		Session: SessionConfig{
			Backend:    SessionBackendMemory,
			TTL:        24 * time.Hour,
			CookieName: "session",
		},
		RateLimit: RateLimitConfig{
			Enabled:  false,
			Requests: 600,
			Window:   time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     TracingExporterGRPC,
			SamplingRate: 1.0,
		},
	}
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	loader := NewLoader(path, "")
	return loader.loadFile(path)
}

// mergeFileConfig overlays non-zero file values onto dst.
func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	setString(&dst.ListenAddr, src.ListenAddr)
	setString(&dst.MetricsAddr, src.MetricsListenAddr)
	setString(&dst.SecretKey, src.SecretKey)
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.LogService, src.LogService)
	if len(src.TrustedProxies) > 0 {
		dst.TrustedProxies = append([]string(nil), src.TrustedProxies...)
	}
	if len(src.AllowedOrigins) > 0 {
		dst.AllowedOrigins = append([]string(nil), src.AllowedOrigins...)
	}
	if err := setDuration(&dst.ShutdownTimeout, "shutdownTimeout", src.ShutdownTimeout); err != nil {
		return err
	}

	if err := setDuration(&dst.CSRF.TimeLimit, "csrf.timeLimit", src.CSRF.TimeLimit); err != nil {
		return err
	}

	setString(&dst.Session.Backend, src.Session.Backend)
	if err := setDuration(&dst.Session.TTL, "session.ttl", src.Session.TTL); err != nil {
		return err
	}
	setString(&dst.Session.CookieName, src.Session.CookieName)
	setString(&dst.Session.RedisAddr, src.Session.Redis.Addr)
	setString(&dst.Session.RedisPassword, src.Session.Redis.Password)
	if src.Session.Redis.DB != 0 {
		dst.Session.RedisDB = src.Session.Redis.DB
	}
	setString(&dst.Session.SQLitePath, src.Session.SQLite.Path)
	setString(&dst.Session.BadgerDir, src.Session.Badger.Dir)

	if src.RateLimit.Enabled != nil {
		dst.RateLimit.Enabled = *src.RateLimit.Enabled
	}
	if src.RateLimit.Requests != 0 {
		dst.RateLimit.Requests = src.RateLimit.Requests
	}
	if err := setDuration(&dst.RateLimit.Window, "rateLimit.window", src.RateLimit.Window); err != nil {
		return err
	}

	if src.Tracing.Enabled != nil {
		dst.Tracing.Enabled = *src.Tracing.Enabled
	}
	setString(&dst.Tracing.Exporter, src.Tracing.Exporter)
	setString(&dst.Tracing.Endpoint, src.Tracing.Endpoint)
	if src.Tracing.SamplingRate != nil {
		dst.Tracing.SamplingRate = *src.Tracing.SamplingRate
	}
	return nil
}

// mergeEnvConfig applies environment overrides (highest priority).
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.ListenAddr = l.envString("GREETER_LISTEN", cfg.ListenAddr)
	cfg.MetricsAddr = l.envString("GREETER_METRICS_LISTEN", cfg.MetricsAddr)
	cfg.SecretKey = l.envStringAlias("GREETER_SECRET_KEY", "SECRET_KEY", cfg.SecretKey)
	cfg.LogLevel = l.envString("GREETER_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("GREETER_LOG_SERVICE", cfg.LogService)
	cfg.TrustedProxies = l.envList("GREETER_TRUSTED_PROXIES", cfg.TrustedProxies)
	cfg.AllowedOrigins = l.envList("GREETER_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.ShutdownTimeout = l.envDuration("GREETER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.CSRF.TimeLimit = l.envDuration("GREETER_CSRF_TIME_LIMIT", cfg.CSRF.TimeLimit)

	cfg.Session.Backend = l.envString("GREETER_SESSION_BACKEND", cfg.Session.Backend)
	cfg.Session.TTL = l.envDuration("GREETER_SESSION_TTL", cfg.Session.TTL)
	cfg.Session.CookieName = l.envString("GREETER_SESSION_COOKIE", cfg.Session.CookieName)
	cfg.Session.RedisAddr = l.envString("GREETER_REDIS_ADDR", cfg.Session.RedisAddr)
	cfg.Session.RedisPassword = l.envString("GREETER_REDIS_PASSWORD", cfg.Session.RedisPassword)
	cfg.Session.RedisDB = l.envInt("GREETER_REDIS_DB", cfg.Session.RedisDB)
	cfg.Session.SQLitePath = l.envString("GREETER_SQLITE_PATH", cfg.Session.SQLitePath)
	cfg.Session.BadgerDir = l.envString("GREETER_BADGER_DIR", cfg.Session.BadgerDir)

	cfg.RateLimit.Enabled = l.envBool("GREETER_RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = l.envInt("GREETER_RATELIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.Window = l.envDuration("GREETER_RATELIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Tracing.Enabled = l.envBool("GREETER_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString("GREETER_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString("GREETER_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat("GREETER_TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := parseDurationValue(v)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, v, err)
	}
	*dst = d
	return nil
}
