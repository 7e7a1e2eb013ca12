// Package metrics records adapter request and item counters with Prometheus.
//
// nodekit runs as a short-lived process, so metrics are exported once at
// the end of a run in the node_exporter textfile format instead of being
// scraped.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Item outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder holds the adapter metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pages    *prometheus.CounterVec
	items    *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodekit_api_requests_total",
				Help: "Total API requests by adapter, method and status code",
			},
			[]string{"adapter", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nodekit_api_request_duration_seconds",
				Help:    "API request latency by adapter and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"adapter", "method"},
		),
		pages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodekit_pages_fetched_total",
				Help: "Pages fetched by the paginator, by adapter",
			},
			[]string{"adapter"},
		),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nodekit_items_processed_total",
				Help: "Input items processed by adapter, operation and outcome",
			},
			[]string{"adapter", "operation", "outcome"},
		),
	}
	r.registry.MustRegister(r.requests, r.duration, r.pages, r.items)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordRequest records one API request. status is 0 when no response was
// received.
func (r *Recorder) RecordRequest(adapter, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(adapter, method, strconv.Itoa(status)).Inc()
	r.duration.WithLabelValues(adapter, method).Observe(d.Seconds())
}

// RecordPage records one page fetched by the paginator.
func (r *Recorder) RecordPage(adapter string) {
	if r == nil {
		return
	}
	r.pages.WithLabelValues(adapter).Inc()
}

// RecordItem records the outcome of one processed input item.
func (r *Recorder) RecordItem(adapter, operation, outcome string) {
	if r == nil {
		return
	}
	r.items.WithLabelValues(adapter, operation, outcome).Inc()
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
