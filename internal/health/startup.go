// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/greeter/internal/config"
	"github.com/ManuGH/greeter/internal/log"
)

// PerformStartupChecks validates the runtime environment before the listeners open.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	for _, addr := range []string{cfg.ListenAddr, cfg.MetricsAddr} {
		if addr == "" {
			continue
		}
		if err := checkListenAddr(addr); err != nil {
			return err
		}
	}

	if cfg.SecretKey == config.DefaultSecretKey {
		logger.Warn().
			Str("event", "startup.default_secret").
			Msg("secret key is the built-in default; set SECRET_KEY before exposing this service")
	}

	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		logger.Warn().
			Str("store_backend", cfg.Session.Backend).
			Msg("sessions are kept in memory and lost on restart")
	case config.SessionBackendSQLite:
		if err := checkDataDir(logger, filepath.Dir(cfg.Session.SQLitePath)); err != nil {
			return fmt.Errorf("session database directory check failed: %w", err)
		}
	case config.SessionBackendBadger:
		if err := os.MkdirAll(cfg.Session.BadgerDir, 0o750); err != nil {
			return fmt.Errorf("create badger directory: %w", err)
		}
		if err := checkDataDir(logger, cfg.Session.BadgerDir); err != nil {
			return fmt.Errorf("session database directory check failed: %w", err)
		}
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("data directory is writable")
	return nil
}
