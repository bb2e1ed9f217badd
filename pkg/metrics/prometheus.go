package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal   *prometheus.CounterVec
	eventsDetected *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashlens_fetches_total",
				Help: "Total number of candle fetches by source",
			},
			[]string{"symbol", "source"},
		),
		eventsDetected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashlens_events_detected_total",
				Help: "Total number of crash events detected",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crashlens_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crashlens_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one candle fetch and where it was served from.
func (r *Recorder) RecordFetch(symbol, source string) {
	r.fetchesTotal.WithLabelValues(symbol, source).Inc()
}

// RecordEventsDetected records detected events for a symbol.
func (r *Recorder) RecordEventsDetected(symbol string, count int) {
	r.eventsDetected.WithLabelValues(symbol).Add(float64(count))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
