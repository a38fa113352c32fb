// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/greeter/internal/config"
)

// ExpirySweeper removes expired sessions from stores that do not expire them on their own.
type ExpirySweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// App owns the long-lived runtime lifecycle (config watcher, reload signal,
// session sweeping) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.Holder
	reloadSignal os.Signal

	sweeper       ExpirySweeper
	sweepInterval time.Duration
}

// NewApp creates a new App orchestrator. cfgHolder may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.Holder) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		reloadSignal: syscall.SIGHUP,
	}
}

// WithSweeper makes Run call s.DeleteExpired every interval.
func (a *App) WithSweeper(s ExpirySweeper, interval time.Duration) *App {
	a.sweeper = s
	a.sweepInterval = interval
	return a
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail if watcher cannot be started.
	if a.cfgHolder != nil {
		if err := a.cfgHolder.Watch(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					// Holder logs the failure and keeps the previous config.
					_ = a.cfgHolder.Reload()
				}
			}
		})
	}

	if a.sweeper != nil && a.sweepInterval > 0 {
		g.Go(func() error {
			a.sweep(ctx)
			return nil
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

func (a *App) sweep(ctx context.Context) {
	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.sweeper.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					a.logger.Warn().Err(err).Str("event", "session.sweep_failed").Msg("expired session sweep failed")
				}
				continue
			}
			if n > 0 {
				a.logger.Debug().Int64("deleted", n).Str("event", "session.swept").Msg("expired sessions removed")
			}
		}
	}
}
