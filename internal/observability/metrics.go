// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	RecordsFetched  prometheus.Counter
	RecordsStored   prometheus.Counter
	RowsDropped     *prometheus.CounterVec
	SourceFetchErrs *prometheus.CounterVec

	// Pipeline metrics
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	UsersProfiled    prometheus.Counter
	ClustersSelected *prometheus.CounterVec
	ReportsWritten   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "p2p_maker_lab"
	}

	return &Metrics{
		RecordsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_fetched_total",
			Help:      "Total number of raw records fetched from sources",
		}),
		RecordsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_stored_total",
			Help:      "Total number of coerced transactions stored to database",
		}),
		RowsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows dropped by reason",
		}, []string{"reason"}),
		SourceFetchErrs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "source_fetch_errors_total",
			Help:      "Total number of source fetch errors by source type",
		}, []string{"source"}),

		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Analysis run duration in seconds by phase",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}, []string{"phase"}),
		UsersProfiled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "users_profiled_total",
			Help:      "Total number of user profiles aggregated",
		}),
		ClustersSelected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "clusters_selected_total",
			Help:      "Total number of market maker cluster selections by mode",
		}, []string{"mode"}),
		ReportsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_written_total",
			Help:      "Total number of report artifact sets written",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFetched adds n to the records fetched counter.
func RecordFetched(n int) {
	DefaultMetrics.RecordsFetched.Add(float64(n))
}

// RecordStored adds n to the records stored counter.
func RecordStored(n int) {
	DefaultMetrics.RecordsStored.Add(float64(n))
}

// RecordDropped records dropped rows with a reason.
func RecordDropped(reason string, n int) {
	DefaultMetrics.RowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordRun records an analysis run completion.
func RecordRun(status string) {
	DefaultMetrics.RunsTotal.WithLabelValues(status).Inc()
}

// RecordPhaseDuration records the duration of a pipeline phase.
func RecordPhaseDuration(phase string, seconds float64) {
	DefaultMetrics.RunDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordSelection records a cluster selection by mode ("heuristic" or "explicit").
func RecordSelection(mode string) {
	DefaultMetrics.ClustersSelected.WithLabelValues(mode).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
