// Package metrics exposes Prometheus instruments for generation requests.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "abapforge"

// Metrics holds the collectors used by the orchestrator and usage queue.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	guard        *prometheus.CounterVec
	attempts     *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	cost         *prometheus.CounterVec
	usageDropped prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Generation requests by outcome.",
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end generation latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		guard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_verdicts_total",
			Help:      "Safety guard verdicts.",
		}, []string{"verdict"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Provider calls by provider and result.",
		}, []string{"provider", "result"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens consumed by successful generations.",
		}, []string{"provider"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimated_cost_cents_total",
			Help:      "Estimated cost of successful generations in cents.",
		}, []string{"provider"}),
		usageDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_records_dropped_total",
			Help:      "Usage records that could not be delivered.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.guard, m.attempts, m.tokens, m.cost, m.usageDropped)
	return m
}

// Handler returns an HTTP handler serving the metrics in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveRequest records a finished generation. outcome is "success" or a
// failure reason.
func (m *Metrics) ObserveRequest(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveGuard records a guard verdict: "approved", "rejected" or
// "unavailable".
func (m *Metrics) ObserveGuard(verdict string) {
	if m == nil {
		return
	}
	m.guard.WithLabelValues(verdict).Inc()
}

// ObserveAttempt records one provider call. result is "success" or an
// error kind.
func (m *Metrics) ObserveAttempt(provider, result string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, result).Inc()
}

// ObserveUsage records tokens and cost of a successful generation.
func (m *Metrics) ObserveUsage(provider string, tokens, costCents int) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(provider).Add(float64(tokens))
	m.cost.WithLabelValues(provider).Add(float64(costCents))
}

// UsageDropped counts an undeliverable usage record.
func (m *Metrics) UsageDropped() {
	if m == nil {
		return
	}
	m.usageDropped.Inc()
}
