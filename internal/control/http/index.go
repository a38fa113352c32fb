// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package http

import (
	"fmt"
	"net/http"

	"github.com/ManuGH/greeter/internal/control/middleware"
	"github.com/ManuGH/greeter/internal/core/useragent"
	"github.com/ManuGH/greeter/internal/log"
	"github.com/ManuGH/greeter/internal/metrics"
	"github.com/ManuGH/greeter/internal/telemetry"
)

// browserTemplate has exactly one slot, filled with the raw User-Agent value.
const browserTemplate = "<p>Your browser is %s</p>"

// ContentTypeHTML is the media type of every page greeter renders.
const ContentTypeHTML = "text/html; charset=utf-8"

// Index echoes the request's User-Agent header. The value is written
// verbatim, without escaping; a missing header yields an empty slot.
func Index(w http.ResponseWriter, r *http.Request) {
	ua := r.Header.Get("User-Agent")
	family := useragent.Family(ua)
	metrics.RecordBrowser(family)
	middleware.AddSpanAttributes(r, telemetry.UserAgentAttributes(ua, family)...)

	w.Header().Set("Content-Type", ContentTypeHTML)
	// #nosec G705 -- the header is echoed unescaped on purpose
	if _, err := fmt.Fprintf(w, browserTemplate, ua); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "index")
		logger.Debug().
			Err(err).
			Str(log.FieldEvent, "index.write_failed").
			Msg("client went away")
	}
}
