// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics records nothing.
type Metrics struct {
	reg        *prometheus.Registry
	operations *prometheus.CounterVec
	providers  *prometheus.HistogramVec
}

// New registers the authhub collectors plus the Go runtime and process
// collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authhub",
			Name:      "auth_operations_total",
			Help:      "Authentication operations by operation, provider and outcome.",
		}, []string{"operation", "provider", "outcome"}),
		providers: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "authhub",
			Name:      "provider_verify_seconds",
			Help:      "Latency of identity provider verification.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "outcome"}),
	}
	m.reg.MustRegister(
		m.operations,
		m.providers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// Operation counts one register, login, refresh or social-login attempt.
func (m *Metrics) Operation(op, provider string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, provider, outcome(err)).Inc()
}

// ProviderVerify observes how long a provider verification took.
func (m *Metrics) ProviderVerify(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.providers.WithLabelValues(provider, outcome(err)).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
