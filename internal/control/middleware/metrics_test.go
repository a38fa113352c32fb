// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func histogramSamples(t *testing.T, o prometheus.Observer) (uint64, float64) {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, o.(prometheus.Metric).Write(m))
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/greet/{who}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/greet/{who}", "200")
	before := testutil.ToFloat64(counter)
	sizeCount, sizeSum := histogramSamples(t, httpResponseSize.WithLabelValues(http.MethodGet, "/greet/{who}"))

	for _, who := range []string{"ada", "grace"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/greet/"+who, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))

	count, sum := histogramSamples(t, httpResponseSize.WithLabelValues(http.MethodGet, "/greet/{who}"))
	assert.Equal(t, sizeCount+2, count)
	assert.InDelta(t, sizeSum+10, sum, 0.001)

	durations, _ := histogramSamples(t, httpRequestDuration.WithLabelValues(http.MethodGet, "/greet/{who}"))
	assert.GreaterOrEqual(t, durations, uint64(2))
	assert.Zero(t, testutil.ToFloat64(httpRequestsInFlight))
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics())
	r.Get("/", func(http.ResponseWriter, *http.Request) {})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/page", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
