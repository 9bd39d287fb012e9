// Package metrics counts export progress with Prometheus collectors and can
// dump them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for export runs.
type Metrics struct {
	registry         *prometheus.Registry
	pagesFetched     *prometheus.CounterVec
	fetchFailures    *prometheus.CounterVec
	rowsExported     *prometheus.CounterVec
	endpointFailures *prometheus.CounterVec
	endpointDuration *prometheus.HistogramVec
	lastRunSuccess   prometheus.Gauge
	lastRunRows      prometheus.Gauge
}

// New creates and registers export metrics with a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates and registers export metrics with registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repsly_export_pages_fetched_total",
			Help: "Pages fetched successfully by endpoint",
		}, []string{"endpoint"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repsly_export_fetch_failures_total",
			Help: "Failed page fetches by endpoint",
		}, []string{"endpoint"}),
		rowsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repsly_export_rows_total",
			Help: "Rows appended to endpoint sheets",
		}, []string{"endpoint"}),
		endpointFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repsly_export_endpoint_failures_total",
			Help: "Endpoints that produced no file",
		}, []string{"endpoint"}),
		endpointDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repsly_export_endpoint_duration_seconds",
			Help:    "Wall time spent exporting one endpoint",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"endpoint"}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "repsly_export_last_success_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
		lastRunRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "repsly_export_last_run_rows",
			Help: "Rows exported by the last completed run",
		}),
	}

	registry.MustRegister(
		m.pagesFetched,
		m.fetchFailures,
		m.rowsExported,
		m.endpointFailures,
		m.endpointDuration,
		m.lastRunSuccess,
		m.lastRunRows,
	)

	return m
}

// PageFetched counts a successful page.
func (m *Metrics) PageFetched(endpoint string) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(endpoint).Inc()
}

// FetchFailed counts a failed page.
func (m *Metrics) FetchFailed(endpoint string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(endpoint).Inc()
}

// RowsAppended adds n exported rows.
func (m *Metrics) RowsAppended(endpoint string, n int) {
	if m == nil {
		return
	}
	m.rowsExported.WithLabelValues(endpoint).Add(float64(n))
}

// EndpointFinished records how long an endpoint took and whether it failed.
func (m *Metrics) EndpointFinished(endpoint string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.endpointDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	if failed {
		m.endpointFailures.WithLabelValues(endpoint).Inc()
	}
}

// RunCompleted stamps the end of a run.
func (m *Metrics) RunCompleted(at time.Time, rows int) {
	if m == nil {
		return
	}
	m.lastRunSuccess.Set(float64(at.Unix()))
	m.lastRunRows.Set(float64(rows))
}

// WriteTextfile writes every metric to path for the node_exporter textfile
// collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
