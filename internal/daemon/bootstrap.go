// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ManuGH/greeter/internal/config"
	"github.com/ManuGH/greeter/internal/control/middleware"
	"github.com/ManuGH/greeter/internal/csrf"
	"github.com/ManuGH/greeter/internal/health"
	"github.com/ManuGH/greeter/internal/log"
	"github.com/ManuGH/greeter/internal/session"
	"github.com/ManuGH/greeter/internal/telemetry"

	controlhttp "github.com/ManuGH/greeter/internal/control/http"
)

const (
	// SweepInterval is how often stores without native expiry are swept.
	SweepInterval = 10 * time.Minute

	storeBreakerThreshold = 5
	storeBreakerReset     = 10 * time.Second
)

// Runtime is everything built from one AppConfig that the listeners serve.
type Runtime struct {
	Store          session.Store
	Telemetry      *telemetry.Provider
	Health         *health.Manager
	Handler        http.Handler
	MetricsHandler http.Handler // nil when /metrics is on the main router
	Server         ServerConfig
}

// OpenStore opens the session store selected by cfg.Session.Backend.
// Persistent backends are wrapped in a session.BreakerStore.
func OpenStore(ctx context.Context, cfg config.AppConfig) (session.Store, error) {
	var (
		store session.Store
		err   error
	)
	switch cfg.Session.Backend {
	case config.SessionBackendMemory, "":
		return session.NewMemoryStore(), nil
	case config.SessionBackendRedis:
		store, err = session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		}, log.WithComponent("session"))
	case config.SessionBackendSQLite:
		store, err = session.OpenSQLite(ctx, cfg.Session.SQLitePath)
	case config.SessionBackendBadger:
		store, err = session.OpenBadger(cfg.Session.BadgerDir)
	default:
		return nil, fmt.Errorf("%w: unknown session backend %q", config.ErrInvalidConfig, cfg.Session.Backend)
	}
	if err != nil {
		return nil, err
	}
	return session.NewBreakerStore("session_store_"+cfg.Session.Backend, store, storeBreakerThreshold, storeBreakerReset), nil
}

// Build wires the session store, tracing, health checks and router for cfg.
// On error, anything already opened is closed.
func Build(ctx context.Context, cfg config.AppConfig) (*Runtime, error) {
	trusted, err := middleware.ParseCIDRs(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewPingChecker("session_store", store, 2*time.Second))

	sessions := session.NewManager(store, cfg.SecretKey, cfg.Session.CookieName, cfg.Session.TTL)
	greeting := controlhttp.NewGreetingHandler(sessions, csrf.New(cfg.SecretKey, cfg.CSRF.TimeLimit), cfg.Session.Backend)

	stack := middleware.StackConfig{
		AllowedOrigins:        cfg.AllowedOrigins,
		TrustedProxies:        trusted,
		EnableSecurityHeaders: true,
		CSP:                   middleware.DefaultCSP,
		EnableMetrics:         true,
		EnableLogging:         true,
		EnableRateLimit:       cfg.RateLimit.Enabled,
		RateLimitRequests:     cfg.RateLimit.Requests,
		RateLimitWindow:       cfg.RateLimit.Window,
	}
	if cfg.Tracing.Enabled {
		stack.TracingService = cfg.LogService
	}

	rt := &Runtime{
		Store:     store,
		Telemetry: tp,
		Health:    hm,
		Handler: controlhttp.NewRouter(controlhttp.RouterConfig{
			Stack:        stack,
			Greeting:     greeting,
			Health:       hm,
			ServeMetrics: cfg.MetricsAddr == "",
		}),
		Server: DefaultServerConfig(cfg.ListenAddr, cfg.MetricsAddr, cfg.ShutdownTimeout),
	}
	if cfg.MetricsAddr != "" {
		rt.MetricsHandler = controlhttp.NewMetricsRouter()
	}
	return rt, nil
}

// Sweeper returns the store's expiry sweeper, or nil when the backend expires entries itself.
func (rt *Runtime) Sweeper() ExpirySweeper {
	store := rt.Store
	if w, ok := store.(interface{ Unwrap() session.Store }); ok {
		store = w.Unwrap()
	}
	if s, ok := store.(ExpirySweeper); ok {
		return s
	}
	return nil
}

// RegisterHooks registers the runtime's cleanup on m. Hooks run in reverse,
// so the store closes after traces are flushed.
func (rt *Runtime) RegisterHooks(m Manager) {
	m.RegisterShutdownHook("session_store", func(context.Context) error {
		return rt.Store.Close()
	})
	m.RegisterShutdownHook("telemetry", rt.Telemetry.Shutdown)
}

// Close releases the runtime without a manager, for failed startups.
func (rt *Runtime) Close(ctx context.Context) error {
	return errors.Join(rt.Telemetry.Shutdown(ctx), rt.Store.Close())
}
