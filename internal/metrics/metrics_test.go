package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.PlanComputed(OutcomeOK, time.Millisecond)
	m.PlanComputed(OutcomeOK, time.Millisecond)
	m.PlanComputed(OutcomeInvalidInput, time.Millisecond)
	m.ProviderFailed("openweathermap")
	m.AnalysisCompleted(OutcomeUnavailable)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.plans.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plans.WithLabelValues(OutcomeInvalidInput)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerFailures.WithLabelValues("openweathermap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues(OutcomeUnavailable)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PlanComputed(OutcomeOK, time.Second)
		m.ProviderFailed("x")
		m.AnalysisCompleted(OutcomeOK)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ProviderFailed("weatherapi")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `crop_advisory_weather_provider_failures_total{provider="weatherapi"} 1`)
}
