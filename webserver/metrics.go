package webserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the HTTP API. A nil receiver is a
// no-op so tests can skip it.
type Metrics struct {
	SearchLatency prometheus.Histogram
	SearchTotal   *prometheus.CounterVec
}

// NewMetrics registers the API metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sirene_search_duration_seconds",
			Help:    "Duration of company searches including upstream calls",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		SearchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sirene_search_total",
			Help: "Total company searches by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveSearchLatency records the duration of one search.
func (m *Metrics) ObserveSearchLatency(d time.Duration) {
	if m != nil {
		m.SearchLatency.Observe(d.Seconds())
	}
}

// IncrementSearch records a search outcome, "ok" or "error".
func (m *Metrics) IncrementSearch(outcome string) {
	if m != nil {
		m.SearchTotal.WithLabelValues(outcome).Inc()
	}
}
