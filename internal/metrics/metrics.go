// Package metrics exposes quote and harness counters in the Prometheus
// format, either over HTTP or as a node-exporter textfile.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/merlin-energy/truequote/internal/validation"
)

const namespace = "truequote"

// Metrics is a private registry with the truequote collectors. It satisfies
// engine.Recorder and validation.RowRecorder.
type Metrics struct {
	registry      *prometheus.Registry
	quotes        *prometheus.CounterVec
	quoteDuration *prometheus.HistogramVec
	rows          *prometheus.CounterVec
}

// New creates the collectors. withRuntime adds the Go and process collectors,
// which only make sense for a long-running server.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Quote requests by industry and outcome.",
		}, []string{"industry", "outcome"}),
		quoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "Time to produce a quote.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"industry"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rows_total",
			Help:      "Validation harness rows by industry and status.",
		}, []string{"industry", "status"}),
	}
	m.registry.MustRegister(m.quotes, m.quoteDuration, m.rows)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// ObserveQuote records one quote.
func (m *Metrics) ObserveQuote(industryID, outcome string, elapsed time.Duration) {
	m.quotes.WithLabelValues(industryID, outcome).Inc()
	m.quoteDuration.WithLabelValues(industryID).Observe(elapsed.Seconds())
}

// ObserveRow records one harness row.
func (m *Metrics) ObserveRow(industryID string, status validation.Status) {
	m.rows.WithLabelValues(industryID, string(status)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node-exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
