// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPUserAgentKey  = "http.user_agent"

	UserAgentFamilyKey = "user_agent.family"

	// Form attributes
	FormNameKey   = "form.name"
	FormResultKey = "form.result"

	// Session attributes
	SessionNewKey     = "session.new"
	SessionBackendKey = "session.backend"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// UserAgentAttributes records the raw header and its classified family.
func UserAgentAttributes(ua, family string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPUserAgentKey, ua),
		attribute.String(UserAgentFamilyKey, family),
	}
}

// FormAttributes describes a form submission outcome.
func FormAttributes(form, result string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(FormNameKey, form),
		attribute.String(FormResultKey, result),
	}
}

// SessionAttributes describes the session bound to a request.
func SessionAttributes(backend string, isNew bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Bool(SessionNewKey, isNew)}
	if backend != "" {
		attrs = append(attrs, attribute.String(SessionBackendKey, backend))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(err error, errorType string) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
