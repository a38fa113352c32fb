// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/greeter/internal/config"
	"github.com/ManuGH/greeter/internal/daemon"
	"github.com/ManuGH/greeter/internal/health"
	greeterlog "github.com/ManuGH/greeter/internal/log"
	"github.com/ManuGH/greeter/internal/metrics"
	"github.com/ManuGH/greeter/internal/version"
)

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	greeterlog.Configure(greeterlog.Config{
		Level:   "info",
		Service: "greeter",
		Version: version.Version,
	})
	logger := greeterlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, strings.TrimSpace(*configPath)); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon failed")
	}

	logger.Info().Msg("server exiting")
}

// run loads configuration and serves until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	logger := greeterlog.WithComponent("daemon")

	// Load configuration with precedence: ENV > File > Defaults
	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration (path %q): %w", configPath, err)
	}

	greeterlog.Configure(greeterlog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	if configPath != "" {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "file").
			Str("path", configPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str("event", "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", cfg.ListenAddr).
		Msg("starting greeter")
	logger.Info().Msgf("→ Sessions: %s (ttl %s)", cfg.Session.Backend, cfg.Session.TTL)
	if cfg.Tracing.Enabled {
		logger.Info().Msgf("→ Tracing: %s via %s", maskURL(cfg.Tracing.Endpoint), cfg.Tracing.Exporter)
	}
	if cfg.MetricsAddr != "" {
		logger.Info().Msgf("→ Metrics: %s", cfg.MetricsAddr)
	}

	rt, err := daemon.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}

	mgr, err := daemon.NewManager(rt.Server, daemon.Deps{
		Logger:         logger,
		Handler:        rt.Handler,
		MetricsHandler: rt.MetricsHandler,
	})
	if err != nil {
		return errors.Join(fmt.Errorf("create daemon manager: %w", err), rt.Close(context.WithoutCancel(ctx)))
	}
	rt.RegisterHooks(mgr)

	cfgHolder := config.NewHolder(cfg, loader)
	cfgHolder.OnChange(func(old, next config.AppConfig) {
		metrics.RecordConfigReload(true)
		if old.LogLevel != next.LogLevel {
			if err := greeterlog.SetLevel(next.LogLevel); err != nil {
				logger.Warn().Err(err).Str("level", next.LogLevel).Msg("ignoring invalid log level")
				return
			}
			logger.Info().
				Str("event", "config.log_level_changed").
				Str("from", old.LogLevel).
				Str("to", greeterlog.Level()).
				Msg("log level changed")
		}
		if restartRequired(old, next) {
			logger.Warn().
				Str("event", "config.restart_required").
				Msg("listener, session or secret settings changed; restart to apply")
		}
	})
	cfgHolder.OnReloadError(func(error) { metrics.RecordConfigReload(false) })

	app := daemon.NewApp(logger, mgr, cfgHolder)
	if sweeper := rt.Sweeper(); sweeper != nil {
		app.WithSweeper(sweeper, daemon.SweepInterval)
	}
	return app.Run(ctx)
}

// restartRequired reports whether next changes settings that are only read at startup.
func restartRequired(old, next config.AppConfig) bool {
	return old.ListenAddr != next.ListenAddr ||
		old.MetricsAddr != next.MetricsAddr ||
		old.SecretKey != next.SecretKey ||
		old.Session != next.Session ||
		old.Tracing != next.Tracing ||
		old.RateLimit != next.RateLimit
}
