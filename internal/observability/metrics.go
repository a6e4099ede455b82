package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the CORD-19 explorer.
// Metrics are organized by subsystem: scans, rows, reports, charts, and the
// dashboard HTTP surface. All counters and histograms are registered via
// promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// ScansStarted counts the total number of dataset scans initiated.
	ScansStarted prometheus.Counter

	// ScansCompleted counts the total number of scans that finished successfully.
	ScansCompleted prometheus.Counter

	// ScansFailed counts the total number of scans that ended in failure.
	ScansFailed prometheus.Counter

	// ScanDuration observes the end-to-end duration of scans in seconds.
	ScanDuration prometheus.Histogram

	// RowsProcessed counts the total number of raw rows read across all scans.
	RowsProcessed prometheus.Counter

	// BatchesProcessed counts the total number of batches cleaned and counted.
	BatchesProcessed prometheus.Counter

	// RowsPerScan observes the distribution of row counts per scan.
	RowsPerScan prometheus.Histogram

	// FieldParseFailures counts rows whose field could not be parsed and
	// degraded to a sentinel, labeled by field.
	FieldParseFailures *prometheus.CounterVec

	// ReportsWritten counts report files written, labeled by report name.
	ReportsWritten *prometheus.CounterVec

	// ChartsRendered counts charts rendered, labeled by chart name.
	ChartsRendered *prometheus.CounterVec

	// ChartRenderDuration observes chart rendering duration in seconds, labeled by chart name.
	ChartRenderDuration *prometheus.HistogramVec

	// SnapshotRefreshes counts dashboard snapshot recomputations.
	SnapshotRefreshes prometheus.Counter

	// SnapshotCacheHits counts dashboard requests served from the memoized snapshot.
	SnapshotCacheHits prometheus.Counter

	// HTTPRequestsTotal counts dashboard HTTP requests, labeled by method, route, and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes dashboard HTTP request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Scans
		ScansStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_started_total",
			Help:      "Total number of dataset scans started",
		}),
		ScansCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_completed_total",
			Help:      "Total number of dataset scans completed successfully",
		}),
		ScansFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_failed_total",
			Help:      "Total number of dataset scans that failed",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of dataset scans in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Rows
		RowsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Total number of raw rows read from metadata files",
		}),
		BatchesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_processed_total",
			Help:      "Total number of batches cleaned and counted",
		}),
		RowsPerScan: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rows_per_scan",
			Help:      "Number of rows read per scan",
			Buckets:   []float64{100, 500, 1000, 2000, 5000, 10000, 50000, 100000, 500000},
		}),
		FieldParseFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_parse_failures_total",
			Help:      "Total number of rows whose field degraded to a sentinel value",
		}, []string{"field"}),

		// Reports
		ReportsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_written_total",
			Help:      "Total number of report files written by report",
		}, []string{"report"}),

		// Charts
		ChartsRendered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Total number of charts rendered by chart",
		}, []string{"chart"}),
		ChartRenderDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_render_duration_seconds",
			Help:      "Duration of chart rendering in seconds by chart",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"chart"}),

		// Dashboard
		SnapshotRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_refreshes_total",
			Help:      "Total number of dashboard snapshot recomputations",
		}),
		SnapshotCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_hits_total",
			Help:      "Total number of dashboard requests served from the memoized snapshot",
		}),
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of dashboard HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of dashboard HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
	}
}

// RecordScanStarted records that a scan has started.
func (m *Metrics) RecordScanStarted() {
	m.ScansStarted.Inc()
}

// RecordScanCompleted records a finished scan with its row accounting.
func (m *Metrics) RecordScanCompleted(rows, batches int, durationSeconds float64) {
	m.ScansCompleted.Inc()
	m.ScanDuration.Observe(durationSeconds)
	m.RowsProcessed.Add(float64(rows))
	m.BatchesProcessed.Add(float64(batches))
	m.RowsPerScan.Observe(float64(rows))
}

// RecordScanFailed records that a scan has failed.
func (m *Metrics) RecordScanFailed(durationSeconds float64) {
	m.ScansFailed.Inc()
	m.ScanDuration.Observe(durationSeconds)
}

// RecordFieldParseFailure records a row whose field degraded to a sentinel.
func (m *Metrics) RecordFieldParseFailure(field string) {
	m.FieldParseFailures.WithLabelValues(field).Inc()
}

// RecordReportWritten records a report file written.
func (m *Metrics) RecordReportWritten(report string) {
	m.ReportsWritten.WithLabelValues(report).Inc()
}

// RecordChartRendered records a rendered chart.
func (m *Metrics) RecordChartRendered(chart string, durationSeconds float64) {
	m.ChartsRendered.WithLabelValues(chart).Inc()
	m.ChartRenderDuration.WithLabelValues(chart).Observe(durationSeconds)
}

// RecordSnapshotRefresh records a dashboard snapshot recomputation.
func (m *Metrics) RecordSnapshotRefresh() {
	m.SnapshotRefreshes.Inc()
}

// RecordSnapshotCacheHit records a dashboard request served from cache.
func (m *Metrics) RecordSnapshotCacheHit() {
	m.SnapshotCacheHits.Inc()
}

// RecordHTTPRequest records a dashboard HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
