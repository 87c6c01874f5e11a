// Package metrics provides Prometheus metrics for board runs and serve mode.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)

// Metrics holds all Prometheus metrics for the application. The recording
// methods are no-ops on a nil receiver.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// Board run metrics
	SourceFetchTotal    *prometheus.CounterVec
	SourceFetchDuration *prometheus.HistogramVec
	RowsDiscardedTotal  *prometheus.CounterVec
	DeparturesEmitted   prometheus.Gauge
	FallbackTotal       prometheus.Counter
	LastRunTimestamp    prometheus.Gauge

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		SourceFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkboard_source_fetch_total",
				Help: "Departure board fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		SourceFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkboard_source_fetch_duration_seconds",
				Help:    "Departure board fetch latency distribution",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"source"},
		),
		RowsDiscardedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkboard_rows_discarded_total",
				Help: "Board rows dropped during extraction by source and reason",
			},
			[]string{"source", "reason"},
		),
		DeparturesEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inkboard_departures_emitted",
			Help: "Departures written by the last run",
		}),
		FallbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inkboard_fallback_total",
			Help: "Runs that emitted the synthetic fallback board",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inkboard_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inkboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inkboard_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	registry.MustRegister(
		m.SourceFetchTotal,
		m.SourceFetchDuration,
		m.RowsDiscardedTotal,
		m.DeparturesEmitted,
		m.FallbackTotal,
		m.LastRunTimestamp,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// ObserveFetch records one source fetch.
func (m *Metrics) ObserveFetch(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.SourceFetchTotal.WithLabelValues(source, outcome).Inc()
	m.SourceFetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// AddDiscarded records n rows of source dropped for reason.
func (m *Metrics) AddDiscarded(source, reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsDiscardedTotal.WithLabelValues(source, reason).Add(float64(n))
}

// ObserveRun records the outcome of a completed run.
func (m *Metrics) ObserveRun(emitted int, fallback bool, at time.Time) {
	if m == nil {
		return
	}
	m.DeparturesEmitted.Set(float64(emitted))
	if fallback {
		m.FallbackTotal.Inc()
	}
	m.LastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
