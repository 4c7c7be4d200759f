// Package metrics exposes Prometheus counters for the advisory service.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crop_advisory"

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeUnknown      = "unknown_reference"
	OutcomeError        = "error"
	OutcomeUnavailable  = "unavailable"
)

type Metrics struct {
	registry         *prometheus.Registry
	plans            *prometheus.CounterVec
	planDuration     prometheus.Histogram
	providerFailures *prometheus.CounterVec
	analyses         *prometheus.CounterVec
}

// New registers the service metrics plus Go runtime and process collectors on
// a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Fertilizer plans computed, by outcome.",
		}, []string{"outcome"}),
		planDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "Time spent computing a plan.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		providerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_provider_failures_total",
			Help:      "Failed weather provider calls, by provider.",
		}, []string{"provider"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disease_analyses_total",
			Help:      "Disease analysis requests, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.plans, m.planDuration, m.providerFailures, m.analyses,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PlanComputed(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.plans.WithLabelValues(outcome).Inc()
	m.planDuration.Observe(took.Seconds())
}

// ProviderFailed implements weather.FailureRecorder.
func (m *Metrics) ProviderFailed(provider string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) AnalysisCompleted(outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
}
