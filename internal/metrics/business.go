// SPDX-License-Identifier: MIT

// Package metrics holds the application-level Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Form submission outcomes.
const (
	SubmissionOK      = "ok"
	SubmissionInvalid = "invalid"
	SubmissionCSRF    = "csrf"
)

var (
	browserRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greeter_browser_requests_total",
		Help: "Index page requests by browser family",
	}, []string{"family"}) // family=useragent.Families

	formSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greeter_form_submissions_total",
		Help: "Name form submissions by outcome",
	}, []string{"result"}) // result=ok|invalid|csrf

	nameChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greeter_name_changes_total",
		Help: "Accepted submissions that replaced a previously stored name",
	})

	sessionStoreErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greeter_session_store_errors_total",
		Help: "Session store failures by operation",
	}, []string{"op"}) // op=load|save

	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "greeter_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"component"})

	circuitBreakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greeter_circuit_breaker_trips_total",
		Help: "Transitions into the open state",
	}, []string{"component", "reason"})

	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greeter_config_reloads_total",
		Help: "Configuration reload attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

// RecordBrowser counts one index request for the given browser family.
func RecordBrowser(family string) {
	browserRequestsTotal.WithLabelValues(family).Inc()
}

// RecordFormSubmission counts one form submission outcome.
func RecordFormSubmission(result string) {
	formSubmissionsTotal.WithLabelValues(result).Inc()
}

// RecordNameChange counts one accepted submission that changed the stored name.
func RecordNameChange() {
	nameChangesTotal.Inc()
}

// RecordSessionStoreError counts one failed store operation.
func RecordSessionStoreError(op string) {
	sessionStoreErrorsTotal.WithLabelValues(op).Inc()
}

// RecordConfigReload counts one reload attempt.
func RecordConfigReload(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	configReloadsTotal.WithLabelValues(outcome).Inc()
}

// SetCircuitBreakerState publishes a breaker's state as a gauge value.
func SetCircuitBreakerState(component, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	circuitBreakerState.WithLabelValues(component).Set(v)
}

// RecordCircuitBreakerTrip counts one transition into the open state.
func RecordCircuitBreakerTrip(component, reason string) {
	circuitBreakerTripsTotal.WithLabelValues(component, reason).Inc()
}
