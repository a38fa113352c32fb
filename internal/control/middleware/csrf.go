// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ManuGH/greeter/internal/control/http/problem"
	"github.com/ManuGH/greeter/internal/log"
)

var forwardingHeaders = []string{
	"Forwarded",
	"X-Forwarded-For",
	"X-Forwarded-Host",
	"X-Forwarded-Proto",
	"X-Forwarded-Server",
}

// CSRFProtection rejects state-changing requests whose Origin (or Referer)
// is neither allow-listed nor the server's own origin. It complements the
// per-form token: browsers always send Origin on cross-site POSTs.
// Over plain HTTP a request carrying neither Origin nor Referer is passed
// on to the form token check; over HTTPS it is rejected.
//
// The own origin is rebuilt from Host and the TLS state. Forwarding headers
// are only honored from trustedProxies; from anyone else they fail the
// same-origin comparison.
func CSRFProtection(allowedOrigins []string, trustedProxies []*net.IPNet) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
			continue
		}
		if n, ok := normalizeOrigin(origin); ok {
			allowed[n] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}

			origin := requestOrigin(r)
			if origin == "" {
				if !hasOriginHeaders(r) && !strings.HasPrefix(selfOrigin(r, trustedProxies), "https://") {
					next.ServeHTTP(w, r)
					return
				}
				rejectOrigin(w, r, "", "Missing origin or referer header")
				return
			}
			if _, ok := allowed[origin]; ok || allowAll {
				next.ServeHTTP(w, r)
				return
			}
			if origin != selfOrigin(r, trustedProxies) {
				rejectOrigin(w, r, origin, "CSRF check failed: origin not trusted")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectOrigin(w http.ResponseWriter, r *http.Request, origin, detail string) {
	logger := log.WithComponentFromContext(r.Context(), "csrf")
	logger.Warn().
		Str(log.FieldEvent, "csrf.origin_rejected").
		Str("origin", origin).
		Str(log.FieldPath, r.URL.Path).
		Msg("rejected cross-origin request")
	problem.Write(w, r, http.StatusForbidden, "csrf/origin", "Forbidden", "CSRF_FORBIDDEN", detail, nil)
}

// requestOrigin prefers Origin and falls back to the scheme and host of an absolute Referer.
func requestOrigin(r *http.Request) string {
	if o, ok := normalizeOrigin(r.Header.Get("Origin")); ok {
		return o
	}
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Scheme == "" || ref.Host == "" {
		return ""
	}
	o, _ := normalizeOrigin(ref.Scheme + "://" + ref.Host)
	return o
}

// selfOrigin is the origin this request was addressed to, or "" when it
// cannot be trusted.
func selfOrigin(r *http.Request, trustedProxies []*net.IPNet) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if hasForwardingHeaders(r) {
		ip := remoteIP(r)
		if ip == nil || !IsIPAllowed(ip, trustedProxies) {
			return ""
		}
		if p := firstValue(r.Header.Get("X-Forwarded-Proto")); p != "" {
			scheme = p
		}
		if h := firstValue(r.Header.Get("X-Forwarded-Host")); h != "" {
			host = h
		}
	}

	if host == "" {
		return ""
	}
	o, _ := normalizeOrigin(scheme + "://" + host)
	return o
}

func hasOriginHeaders(r *http.Request) bool {
	return r.Header.Get("Origin") != "" || r.Header.Get("Referer") != ""
}

func hasForwardingHeaders(r *http.Request) bool {
	for _, h := range forwardingHeaders {
		if r.Header.Get(h) != "" {
			return true
		}
	}
	return false
}

// firstValue returns the client-nearest entry of a comma separated header.
func firstValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}

// normalizeOrigin lower-cases scheme and host and drops default ports.
func normalizeOrigin(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || strings.ContainsAny(host, " \t\r\n/@\\") {
		return "", false
	}

	port := u.Port()
	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return "", false
		}
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	if port != "" {
		return scheme + "://" + net.JoinHostPort(host, port), true
	}
	if strings.Contains(host, ":") {
		return scheme + "://[" + host + "]", true
	}
	return scheme + "://" + host, true
}
