// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package http wires greeter's pages, probes and metrics onto a chi router.
package http

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/greeter/internal/control/http/problem"
	"github.com/ManuGH/greeter/internal/control/middleware"
	"github.com/ManuGH/greeter/internal/health"
)

// RouterConfig collects everything the main router serves.
type RouterConfig struct {
	Stack    middleware.StackConfig
	Greeting *GreetingHandler
	Health   *health.Manager

	// ServeMetrics mounts /metrics on this router. It is false when a
	// dedicated metrics listener is configured.
	ServeMetrics bool
}

// NewRouter builds the main HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	r := middleware.NewRouter(cfg.Stack)
	r.Use(chimw.GetHead)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, "not_found", "Not Found", "NOT_FOUND", "", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed",
			"METHOD_NOT_ALLOWED", "", nil)
	})

	r.Get("/", Index)
	r.Method(http.MethodGet, GreetingPath, cfg.Greeting)
	r.Method(http.MethodPost, GreetingPath, cfg.Greeting)

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.ServeHealth)
		r.Get("/readyz", cfg.Health.ServeReady)
	}
	if cfg.ServeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// NewMetricsRouter serves only /metrics, for a dedicated metrics listener.
func NewMetricsRouter() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
