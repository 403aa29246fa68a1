package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghxstship/marketplace/internal/crud"
	"github.com/ghxstship/marketplace/model"
)

// Histogram bucket definitions.
var (
	httpDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	storeDurationBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	bodySizeBuckets      = []float64{100, 1024, 10240, 102400, 1048576}
	rowCountBuckets      = []float64{1, 10, 50, 100, 500, 1000, 5000}
)

// Metrics holds all Prometheus metric instruments for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestSizeBytes  *prometheus.HistogramVec
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Record operation metrics
	RecordOperationsTotal     *prometheus.CounterVec
	RecordOperationDuration   *prometheus.HistogramVec
	ValidationFailuresTotal   *prometheus.CounterVec
	PermissionDenialsTotal    *prometheus.CounterVec
	BulkOperationRecordsTotal *prometheus.CounterVec

	// Realtime metrics
	RealtimeEventsTotal        *prometheus.CounterVec
	RealtimeEventsDroppedTotal prometheus.Counter
	RealtimeSubscriptions      prometheus.Gauge

	// Transfer metrics
	ExportsTotal    *prometheus.CounterVec
	ExportRows      *prometheus.HistogramVec
	ImportsTotal    *prometheus.CounterVec
	ImportRowsTotal *prometheus.CounterVec
}

// InitMetrics creates and registers all Prometheus metric instruments.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		// HTTP
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPRequestSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_http_request_size_bytes",
			Help:    "HTTP request body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),
		HTTPResponseSizeBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_http_response_size_bytes",
			Help:    "HTTP response body size in bytes.",
			Buckets: bodySizeBuckets,
		}, []string{"method", "path_pattern"}),

		// Record operations
		RecordOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_record_operations_total",
			Help: "Total number of record operations.",
		}, []string{"entity", "operation", "status"}),
		RecordOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_record_operation_duration_seconds",
			Help:    "Record operation duration in seconds.",
			Buckets: storeDurationBuckets,
		}, []string{"entity", "operation"}),
		ValidationFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_validation_failures_total",
			Help: "Total number of schema validation failures.",
		}, []string{"entity"}),
		PermissionDenialsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_permission_denials_total",
			Help: "Total number of permission denials.",
		}, []string{"entity", "operation"}),
		BulkOperationRecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_bulk_operation_records_total",
			Help: "Records touched by bulk operations.",
		}, []string{"entity", "operation", "outcome"}),

		// Realtime
		RealtimeEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_realtime_events_total",
			Help: "Total number of change events dispatched.",
		}, []string{"entity", "type"}),
		RealtimeEventsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketplace_realtime_events_dropped_total",
			Help: "Change events dropped because the hub buffer was full.",
		}),
		RealtimeSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketplace_realtime_subscriptions",
			Help: "Number of active realtime subscriptions.",
		}),

		// Transfer
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_exports_total",
			Help: "Total number of exports.",
		}, []string{"entity", "format"}),
		ExportRows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_export_rows",
			Help:    "Rows per export.",
			Buckets: rowCountBuckets,
		}, []string{"entity", "format"}),
		ImportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_imports_total",
			Help: "Total number of import runs.",
		}, []string{"entity", "format", "status"}),
		ImportRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_import_rows_total",
			Help: "Rows per import run by outcome.",
		}, []string{"entity", "outcome"}),
	}

	reg.MustRegister(
		// HTTP
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSizeBytes,
		m.HTTPResponseSizeBytes,
		// Record operations
		m.RecordOperationsTotal,
		m.RecordOperationDuration,
		m.ValidationFailuresTotal,
		m.PermissionDenialsTotal,
		m.BulkOperationRecordsTotal,
		// Realtime
		m.RealtimeEventsTotal,
		m.RealtimeEventsDroppedTotal,
		m.RealtimeSubscriptions,
		// Transfer
		m.ExportsTotal,
		m.ExportRows,
		m.ImportsTotal,
		m.ImportRowsTotal,
	)

	return m
}

// --- Recording helpers ---

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration, reqSize, respSize int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
	m.HTTPRequestSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(reqSize))
	m.HTTPResponseSizeBytes.WithLabelValues(method, pathPattern).Observe(float64(respSize))
}

// RecordOperation records one record operation.
func (m *Metrics) RecordOperation(entity, operation, status string, duration time.Duration) {
	m.RecordOperationsTotal.WithLabelValues(entity, operation, status).Inc()
	m.RecordOperationDuration.WithLabelValues(entity, operation).Observe(duration.Seconds())
}

// RecordValidationFailure records a schema validation failure.
func (m *Metrics) RecordValidationFailure(entity string) {
	m.ValidationFailuresTotal.WithLabelValues(entity).Inc()
}

// RecordPermissionDenial records a permission denial.
func (m *Metrics) RecordPermissionDenial(entity, operation string) {
	m.PermissionDenialsTotal.WithLabelValues(entity, operation).Inc()
}

// RecordBulkOutcome records how many records a bulk operation touched.
func (m *Metrics) RecordBulkOutcome(entity, operation string, success, failed int) {
	m.BulkOperationRecordsTotal.WithLabelValues(entity, operation, "success").Add(float64(success))
	m.BulkOperationRecordsTotal.WithLabelValues(entity, operation, "failed").Add(float64(failed))
}

// RecordRealtimeEvent records one dispatched change event.
func (m *Metrics) RecordRealtimeEvent(entity, changeType string) {
	m.RealtimeEventsTotal.WithLabelValues(entity, changeType).Inc()
}

// RecordRealtimeDrop records one dropped change event.
func (m *Metrics) RecordRealtimeDrop() {
	m.RealtimeEventsDroppedTotal.Inc()
}

// SetRealtimeSubscriptions sets the active subscription gauge.
func (m *Metrics) SetRealtimeSubscriptions(count float64) {
	m.RealtimeSubscriptions.Set(count)
}

// RecordExport records one export run.
func (m *Metrics) RecordExport(entity, format string, rows int) {
	m.ExportsTotal.WithLabelValues(entity, format).Inc()
	m.ExportRows.WithLabelValues(entity, format).Observe(float64(rows))
}

// RecordImport records one import run.
func (m *Metrics) RecordImport(entity, format, status string, imported, skipped, failed int) {
	m.ImportsTotal.WithLabelValues(entity, format, status).Inc()
	m.ImportRowsTotal.WithLabelValues(entity, "imported").Add(float64(imported))
	m.ImportRowsTotal.WithLabelValues(entity, "skipped").Add(float64(skipped))
	m.ImportRowsTotal.WithLabelValues(entity, "failed").Add(float64(failed))
}

// OperationObserver adapts the metrics to the orchestration engine's
// observer hook.
type OperationObserver struct {
	metrics *Metrics
}

// NewOperationObserver creates an observer recording engine operations.
func NewOperationObserver(m *Metrics) *OperationObserver {
	return &OperationObserver{metrics: m}
}

// OnOperation implements crud.Observer.
func (o *OperationObserver) OnOperation(_ context.Context, event crud.OperationEvent) {
	status := "success"
	if !event.Success {
		status = "failure"
	}
	entity := string(event.Entity)
	o.metrics.RecordOperation(entity, event.Op, status, event.Duration)

	switch event.Code {
	case model.ErrValidationError:
		o.metrics.RecordValidationFailure(entity)
	case model.ErrForbidden:
		o.metrics.RecordPermissionDenial(entity, event.Op)
	}
	if event.Bulk {
		o.metrics.RecordBulkOutcome(entity, event.Op, event.BulkSuccess, event.BulkFailed)
	}
}

// --- HTTP Middleware ---

// MetricsMiddleware returns HTTP middleware that records request metrics using
// chi's route pattern (not the actual URL path) to avoid label cardinality
// explosion.
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		pathPattern := routePattern(r)
		reqSize := 0
		if r.ContentLength > 0 {
			reqSize = int(r.ContentLength)
		}

		m.RecordHTTPRequest(r.Method, pathPattern, sw.status, duration, reqSize, sw.bytes)
	})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := strings.Join(rctx.RoutePatterns, "")
	// chi route patterns have trailing /*, remove it.
	pattern = strings.TrimSuffix(pattern, "/*")
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// metricsResponseWriter wraps http.ResponseWriter to capture status and bytes.
type metricsResponseWriter struct {
	http.ResponseWriter
	status  int
	bytes   int
	written bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap exposes the underlying writer so http.ResponseController and
// websocket upgrades can reach http.Hijacker through this wrapper.
func (w *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
