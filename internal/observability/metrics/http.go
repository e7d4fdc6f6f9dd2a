package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal      *prometheus.CounterVec
	uploadBytes       *prometheus.HistogramVec
	triggersTotal     *prometheus.CounterVec
	reportsTotal      *prometheus.CounterVec
	scoreCorrections  *prometheus.CounterVec
	authFailuresTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "finsight",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "documents",
			Name:      "uploads_total",
			Help:      "Total accepted document uploads by file type.",
		},
		[]string{"service", "file_type"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finsight",
			Subsystem: "documents",
			Name:      "upload_bytes",
			Help:      "Distribution of accepted upload sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service"},
	)
	triggersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "documents",
			Name:      "process_triggers_total",
			Help:      "Total processing trigger requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	reportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "reports",
			Name:      "downloads_total",
			Help:      "Total rendered report downloads by format.",
		},
		[]string{"service", "format"},
	)
	scoreCorrections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "analysis",
			Name:      "score_corrections_total",
			Help:      "Total manual financial-field corrections.",
		},
		[]string{"service"},
	)
	authFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finsight",
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total failed authentication attempts by reason.",
		},
		[]string{"service", "reason"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		uploadBytes,
		triggersTotal,
		reportsTotal,
		scoreCorrections,
		authFailuresTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		uploadsTotal:      uploadsTotal,
		uploadBytes:       uploadBytes,
		triggersTotal:     triggersTotal,
		reportsTotal:      reportsTotal,
		scoreCorrections:  scoreCorrections,
		authFailuresTotal: authFailuresTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses resource ids so the path label stays low-cardinality.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/documents/"):
		return "/api/documents/{document_id}"
	case strings.HasPrefix(path, "/api/analysis/"):
		return "/api/analysis/{document_id}"
	case strings.HasPrefix(path, "/api/clients/"):
		return "/api/clients/{client_id}"
	case strings.HasPrefix(path, "/api/admin/users/"):
		return "/api/admin/users/{user_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordUpload(service, fileType string, size int64) {
	if fileType == "" {
		fileType = "unknown"
	}
	m.uploadsTotal.WithLabelValues(service, fileType).Inc()
	if size > 0 {
		m.uploadBytes.WithLabelValues(service).Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordTrigger(service, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.triggersTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordReportDownload(service, format string) {
	if format == "" {
		format = "unknown"
	}
	m.reportsTotal.WithLabelValues(service, format).Inc()
}

func (m *HTTPServerMetrics) RecordScoreCorrection(service string) {
	m.scoreCorrections.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordAuthFailure(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.authFailuresTotal.WithLabelValues(service, reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
