// SPDX-License-Identifier: MIT

package config

// RedactedValue replaces secrets in exported configuration.
const RedactedValue = "***"

// ToFileConfig converts a resolved configuration back into its YAML form.
// Secrets are replaced with RedactedValue unless they are still the defaults.
func ToFileConfig(cfg AppConfig) FileConfig {
	rateLimit := cfg.RateLimit.Enabled
	tracing := cfg.Tracing.Enabled
	sampling := cfg.Tracing.SamplingRate

	out := FileConfig{
		ListenAddr:        cfg.ListenAddr,
		MetricsListenAddr: cfg.MetricsAddr,
		SecretKey:         cfg.SecretKey,
		LogLevel:          cfg.LogLevel,
		LogService:        cfg.LogService,
		TrustedProxies:    cfg.TrustedProxies,
		AllowedOrigins:    cfg.AllowedOrigins,
		ShutdownTimeout:   cfg.ShutdownTimeout.String(),
		CSRF: CSRFFileConfig{
			TimeLimit: cfg.CSRF.TimeLimit.String(),
		},
		Session: SessionFileConfig{
			Backend:    cfg.Session.Backend,
			TTL:        cfg.Session.TTL.String(),
			CookieName: cfg.Session.CookieName,
			Redis: RedisFileConfig{
				Addr:     cfg.Session.RedisAddr,
				Password: cfg.Session.RedisPassword,
				DB:       cfg.Session.RedisDB,
			},
			SQLite: SQLiteFileConfig{Path: cfg.Session.SQLitePath},
			Badger: BadgerFileConfig{Dir: cfg.Session.BadgerDir},
		},
		RateLimit: RateLimitFileConfig{
			Enabled:  &rateLimit,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window.String(),
		},
		Tracing: TracingFileConfig{
			Enabled:      &tracing,
			Exporter:     cfg.Tracing.Exporter,
			Endpoint:     cfg.Tracing.Endpoint,
			SamplingRate: &sampling,
		},
	}

	if out.SecretKey != "" && out.SecretKey != DefaultSecretKey {
		out.SecretKey = RedactedValue
	}
	if out.Session.Redis.Password != "" {
		out.Session.Redis.Password = RedactedValue
	}
	return out
}
