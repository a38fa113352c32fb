// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ServerConfig holds listener addresses and HTTP server timeouts.
type ServerConfig struct {
	ListenAddr  string
	MetricsAddr string // empty disables the dedicated metrics listener

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	ShutdownTimeout   time.Duration
}

// DefaultServerConfig returns conservative timeouts for a public HTML service.
func DefaultServerConfig(listenAddr, metricsAddr string, shutdownTimeout time.Duration) ServerConfig {
	return ServerConfig{
		ListenAddr:        listenAddr,
		MetricsAddr:       metricsAddr,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ShutdownTimeout:   shutdownTimeout,
	}
}

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// Handler serves the main listener
	Handler http.Handler

	// MetricsHandler serves the metrics listener when MetricsAddr is set
	MetricsHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Handler == nil {
		return ErrMissingHandler
	}
	return nil
}
