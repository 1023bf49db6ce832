package jsonrpc11

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Call outcome labels.
const (
	outcomeOK             = "ok"
	outcomeServiceError   = "service_error"
	outcomeHTTPError      = "http_error"
	outcomeTransportError = "transport_error"
)

// WithMetrics registers call metrics with reg and has the Client update them:
// a counter of calls by method and outcome, and a histogram of call wall
// time. Registering two clients with the same Registerer panics on the
// duplicate collectors; use one Registerer per Client.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = newClientMetrics(reg)
		}
	}
}

type clientMetrics struct {
	calls    *prometheus.CounterVec
	duration prometheus.Histogram
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jsonrpc11",
			Name:      "calls_total",
			Help:      "Total RPC calls issued, by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jsonrpc11",
			Name:      "call_duration_seconds",
			Help:      "Wall time of RPC calls, including response transfer.",
		}),
	}
	reg.MustRegister(m.calls, m.duration)
	return m
}

// observe records one finished call. Safe on a nil receiver so clients
// without metrics skip the bookkeeping.
func (m *clientMetrics) observe(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(method, outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
