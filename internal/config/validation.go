// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for greeter.
package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/greeter/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package.
// Failures wrap ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("ListenAddr", cfg.ListenAddr)
	if strings.TrimSpace(cfg.MetricsAddr) != "" {
		v.ListenAddr("MetricsAddr", cfg.MetricsAddr)
	}
	v.NotEmpty("SecretKey", cfg.SecretKey)

	if _, err := validate.ParseLogLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		v.AddError("LogLevel", "must be one of trace, debug, info, warn, error", cfg.LogLevel)
	}

	v.CIDRs("TrustedProxies", cfg.TrustedProxies)

	if cfg.ShutdownTimeout <= 0 {
		v.AddError("ShutdownTimeout", "must be positive", cfg.ShutdownTimeout)
	}
	if cfg.CSRF.TimeLimit < 0 {
		v.AddError("CSRF.TimeLimit", "cannot be negative", cfg.CSRF.TimeLimit)
	}

	v.OneOf("Session.Backend", cfg.Session.Backend, []string{
		SessionBackendMemory, SessionBackendRedis, SessionBackendSQLite, SessionBackendBadger,
	})
	if cfg.Session.TTL <= 0 {
		v.AddError("Session.TTL", "must be positive", cfg.Session.TTL)
	}
	v.NotEmpty("Session.CookieName", cfg.Session.CookieName)
	switch cfg.Session.Backend {
	case SessionBackendRedis:
		v.NotEmpty("Session.RedisAddr", cfg.Session.RedisAddr)
		v.NonNegative("Session.RedisDB", cfg.Session.RedisDB)
	case SessionBackendSQLite:
		v.NotEmpty("Session.SQLitePath", cfg.Session.SQLitePath)
	case SessionBackendBadger:
		v.NotEmpty("Session.BadgerDir", cfg.Session.BadgerDir)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("RateLimit.Requests", cfg.RateLimit.Requests)
		if cfg.RateLimit.Window <= 0 {
			v.AddError("RateLimit.Window", "must be positive", cfg.RateLimit.Window)
		}
	}

	if cfg.Tracing.Enabled {
		v.OneOf("Tracing.Exporter", cfg.Tracing.Exporter, []string{TracingExporterGRPC, TracingExporterHTTP})
		v.NotEmpty("Tracing.Endpoint", cfg.Tracing.Endpoint)
	}
	v.FloatRange("Tracing.SamplingRate", cfg.Tracing.SamplingRate, 0, 1)

	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
