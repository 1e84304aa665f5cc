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

// HTTPServerMetrics owns the api process registry. Request counters are
// recorded by the middleware; domain counters are recorded by the handlers.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	documentsIngestedTotal *prometheus.CounterVec
	extractionsTotal       *prometheus.CounterVec
	auditsTotal            *prometheus.CounterVec
	findingsTotal          *prometheus.CounterVec
	reportsTotal           *prometheus.CounterVec

	ragRequestsTotal     *prometheus.CounterVec
	ragRetrievalHitTotal *prometheus.CounterVec
	ragNoContextTotal    *prometheus.CounterVec
	ragRetrievedChunks   *prometheus.HistogramVec
	ragDuration          *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ci",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ci",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	documentsIngestedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "contracts",
			Name:      "documents_ingested_total",
			Help:      "Total documents accepted for ingestion.",
		},
		[]string{"service"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "contracts",
			Name:      "field_extractions_total",
			Help:      "Total completed field extraction runs.",
		},
		[]string{"service"},
	)
	auditsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "contracts",
			Name:      "audits_total",
			Help:      "Total completed audit runs.",
		},
		[]string{"service"},
	)
	findingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "contracts",
			Name:      "audit_findings_total",
			Help:      "Total findings produced by audit runs, by severity.",
		},
		[]string{"service", "severity"},
	)
	reportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "contracts",
			Name:      "reports_exported_total",
			Help:      "Total exported audit report workbooks.",
		},
		[]string{"service"},
	)
	ragRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total successful RAG requests.",
		},
		[]string{"service", "endpoint"},
	)
	ragRetrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "rag",
			Name:      "retrieval_hit_total",
			Help:      "Total RAG requests with at least one retrieved source.",
		},
		[]string{"service", "endpoint"},
	)
	ragNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ci",
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total RAG requests without retrieved sources.",
		},
		[]string{"service", "endpoint"},
	)
	ragRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ci",
			Subsystem: "rag",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful RAG request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "endpoint"},
	)
	ragDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ci",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "RAG execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		documentsIngestedTotal,
		extractionsTotal,
		auditsTotal,
		findingsTotal,
		reportsTotal,
		ragRequestsTotal,
		ragRetrievalHitTotal,
		ragNoContextTotal,
		ragRetrievedChunks,
		ragDuration,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		documentsIngestedTotal: documentsIngestedTotal,
		extractionsTotal:       extractionsTotal,
		auditsTotal:            auditsTotal,
		findingsTotal:          findingsTotal,
		reportsTotal:           reportsTotal,
		ragRequestsTotal:       ragRequestsTotal,
		ragRetrievalHitTotal:   ragRetrievalHitTotal,
		ragNoContextTotal:      ragNoContextTotal,
		ragRetrievedChunks:     ragRetrievedChunks,
		ragDuration:            ragDuration,
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

// normalizePath collapses per-document paths so the path label stays
// low-cardinality.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/documents/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/documents/")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return "/v1/documents/{document_id}/" + rest[idx+1:]
	}
	return "/v1/documents/{document_id}"
}

func (m *HTTPServerMetrics) RecordDocumentIngested(service string) {
	m.documentsIngestedTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordFieldExtraction(service string) {
	m.extractionsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordAudit(service string, severityCounts map[string]int) {
	m.auditsTotal.WithLabelValues(service).Inc()
	for severity, count := range severityCounts {
		if count <= 0 {
			continue
		}
		m.findingsTotal.WithLabelValues(service, severity).Add(float64(count))
	}
}

func (m *HTTPServerMetrics) RecordReportExport(service string) {
	m.reportsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordRAGObservation(service, endpoint string, sourceCount int, duration time.Duration) {
	m.ragRequestsTotal.WithLabelValues(service, endpoint).Inc()
	m.ragRetrievedChunks.WithLabelValues(service, endpoint).Observe(float64(sourceCount))
	m.ragDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.ragRetrievalHitTotal.WithLabelValues(service, endpoint).Inc()
		return
	}
	m.ragNoContextTotal.WithLabelValues(service, endpoint).Inc()
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
