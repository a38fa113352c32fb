// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager interface {
	// Start starts all configured servers and blocks until shutdown
	Start(ctx context.Context) error

	// Shutdown gracefully shuts down all servers
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)
}

type manager struct {
	serverCfg ServerConfig
	deps      Deps

	apiServer     *http.Server
	metricsServer *http.Server

	shutdownHooks []namedHook

	started  bool
	stopping bool
	mu       sync.Mutex

	// ready is closed once every listener is bound; addrs then holds them.
	ready chan struct{}
	addrs map[string]string
	// stopped is closed when Shutdown begins.
	stopped chan struct{}

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(serverCfg ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if serverCfg.ShutdownTimeout <= 0 {
		serverCfg.ShutdownTimeout = 10 * time.Second
	}

	return &manager{
		serverCfg:     serverCfg,
		deps:          deps,
		logger:        deps.Logger.With().Str("component", "manager").Logger(),
		shutdownHooks: make([]namedHook, 0),
		ready:         make(chan struct{}),
		addrs:         make(map[string]string),
		stopped:       make(chan struct{}),
	}, nil
}

// Start binds the listeners, serves until ctx is cancelled or a server
// fails, then shuts down gracefully. Bind failures are returned before
// anything is served.
func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	apiLn, err := net.Listen("tcp", m.serverCfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %w", ErrServerStartFailed, m.serverCfg.ListenAddr, err)
	}

	var metricsLn net.Listener
	if m.serverCfg.MetricsAddr != "" && m.deps.MetricsHandler != nil {
		metricsLn, err = net.Listen("tcp", m.serverCfg.MetricsAddr)
		if err != nil {
			_ = apiLn.Close()
			return fmt.Errorf("%w: listen %s: %w", ErrServerStartFailed, m.serverCfg.MetricsAddr, err)
		}
	}

	m.mu.Lock()
	m.apiServer = m.newServer(m.deps.Handler)
	m.addrs["api"] = apiLn.Addr().String()
	if metricsLn != nil {
		m.metricsServer = &http.Server{
			Handler:           m.deps.MetricsHandler,
			ReadHeaderTimeout: m.serverCfg.ReadHeaderTimeout,
		}
		m.addrs["metrics"] = metricsLn.Addr().String()
	}
	m.mu.Unlock()
	close(m.ready)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.serve("api", m.apiServer, apiLn) })
	if metricsLn != nil {
		g.Go(func() error { return m.serve("metrics", m.metricsServer, metricsLn) })
	}
	g.Go(func() error {
		select {
		case <-m.stopped:
			return nil
		case <-gctx.Done():
		}
		if ctx.Err() != nil {
			m.logger.Info().Str("event", "shutdown.signal").Msg("shutdown signal received")
		}
		return m.Shutdown(context.WithoutCancel(ctx))
	})

	return g.Wait()
}

func (m *manager) newServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: m.serverCfg.ReadHeaderTimeout,
		ReadTimeout:       m.serverCfg.ReadTimeout,
		WriteTimeout:      m.serverCfg.WriteTimeout,
		IdleTimeout:       m.serverCfg.IdleTimeout,
		MaxHeaderBytes:    m.serverCfg.MaxHeaderBytes,
	}
}

func (m *manager) serve(name string, srv *http.Server, ln net.Listener) error {
	m.logger.Info().
		Str("event", name+".listening").
		Str("addr", ln.Addr().String()).
		Msg("server listening")

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		m.logger.Error().
			Err(err).
			Str("event", name+".server.failed").
			Msg("server failed")
		return fmt.Errorf("%s server: %w", name, err)
	}
	return nil
}

// Addr returns the bound address of a listener ("api" or "metrics") once
// Start has opened it.
func (m *manager) Addr(ctx context.Context, name string) (string, error) {
	select {
	case <-m.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	addr, ok := m.addrs[name]
	if !ok {
		return "", fmt.Errorf("no %s listener", name)
	}
	return addr, nil
}

func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	close(m.stopped)
	apiServer, metricsServer := m.apiServer, m.metricsServer
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Dur("timeout", m.serverCfg.ShutdownTimeout).Msg("shutting down daemon manager")

	// bounded even when the caller's context is already cancelled
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error

	if apiServer != nil {
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("api server shutdown: %w", err))
			_ = apiServer.Close()
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
			_ = metricsServer.Close()
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().
			Str("hook", hook.name).
			Dur("duration", time.Since(hookStart)).
			Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		m.logger.Error().Int("error_count", len(errs)).Msg("shutdown completed with errors")
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	m.logger.Info().Msg("daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
	m.logger.Debug().Str("hook", name).Msg("registered shutdown hook")
}
