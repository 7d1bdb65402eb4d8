package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics for the relay.
type Metrics struct {
	SessionTransitions *prometheus.CounterVec
	PollResults        *prometheus.CounterVec
	RateLimitHits      *prometheus.CounterVec
	ExchangeRequests   *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers the relay metrics with reg. Tests pass a
// fresh registry to avoid duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_session_transitions_total",
				Help: "Session lifecycle transitions (registered, fulfilled, consumed).",
			},
			[]string{"provider", "transition"},
		),
		PollResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_poll_results_total",
				Help: "Poll responses by terminal status.",
			},
			[]string{"provider", "status"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter.",
			},
			[]string{"endpoint"},
		),
		ExchangeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_exchange_requests_total",
				Help: "Token exchange outcomes per provider.",
			},
			[]string{"provider", "result"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}

// RecordSessionTransition records one lifecycle transition.
func (m *Metrics) RecordSessionTransition(provider, transition string) {
	m.SessionTransitions.WithLabelValues(provider, transition).Inc()
}

// RecordPollResult records the status returned by one poll call.
func (m *Metrics) RecordPollResult(provider, status string) {
	m.PollResults.WithLabelValues(provider, status).Inc()
}

// RecordRateLimitHit records a rejected request.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordExchange records a token exchange outcome.
func (m *Metrics) RecordExchange(provider, result string) {
	m.ExchangeRequests.WithLabelValues(provider, result).Inc()
}

// RecordRequest records one HTTP request's latency.
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
