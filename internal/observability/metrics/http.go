package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal         *prometheus.CounterVec
	searchHits          *prometheus.HistogramVec
	searchDuration      *prometheus.HistogramVec
	ingestDocsTotal     *prometheus.CounterVec
	ingestChunksTotal   *prometheus.CounterVec
	lexicalRebuild      *prometheus.HistogramVec
	lexicalDocs         *prometheus.GaugeVec
	evaluationRecall    *prometheus.GaugeVec
	evaluationPrecision *prometheus.GaugeVec
	evaluationFailed    *prometheus.CounterVec

	dependencies *DependencyMetrics
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "retrieval",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total successful search requests by retrieval mode.",
		},
		[]string{"service", "mode"},
	)
	searchHits := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "search",
			Name:      "fused_hits",
			Help:      "Distribution of fused hits returned per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service", "mode"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	ingestDocsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Ingested documents by normalization outcome.",
		},
		[]string{"service", "outcome"},
	)
	ingestChunksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total chunks indexed.",
		},
		[]string{"service"},
	)
	lexicalRebuild := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "lexical",
			Name:      "rebuild_duration_seconds",
			Help:      "Lexical index rebuild duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service"},
	)
	lexicalDocs := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "retrieval",
			Subsystem: "lexical",
			Name:      "documents",
			Help:      "Documents held in the lexical index per collection.",
		},
		[]string{"service", "collection"},
	)
	evaluationRecall := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "retrieval",
			Subsystem: "evaluation",
			Name:      "mean_recall",
			Help:      "Mean recall@k of the latest evaluation run per collection.",
		},
		[]string{"service", "collection"},
	)
	evaluationPrecision := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "retrieval",
			Subsystem: "evaluation",
			Name:      "mean_precision",
			Help:      "Mean precision@k of the latest evaluation run per collection.",
		},
		[]string{"service", "collection"},
	)
	evaluationFailed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "evaluation",
			Name:      "failed_samples_total",
			Help:      "Evaluation samples that failed to retrieve.",
		},
		[]string{"service", "collection"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchHits,
		searchDuration,
		ingestDocsTotal,
		ingestChunksTotal,
		lexicalRebuild,
		lexicalDocs,
		evaluationRecall,
		evaluationPrecision,
		evaluationFailed,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		searchTotal:         searchTotal,
		searchHits:          searchHits,
		searchDuration:      searchDuration,
		ingestDocsTotal:     ingestDocsTotal,
		ingestChunksTotal:   ingestChunksTotal,
		lexicalRebuild:      lexicalRebuild,
		lexicalDocs:         lexicalDocs,
		evaluationRecall:    evaluationRecall,
		evaluationPrecision: evaluationPrecision,
		evaluationFailed:    evaluationFailed,
		dependencies:        newDependencyMetrics(service, registry),
	}
}

// Dependencies returns the retry/breaker series exposed by Handler.
func (m *HTTPServerMetrics) Dependencies() *DependencyMetrics {
	return m.dependencies
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

// normalizePath collapses path parameters so label cardinality stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/evaluations/"):
		return "/v1/evaluations/{id}"
	case strings.HasPrefix(path, "/v1/collections/"):
		rest := strings.TrimPrefix(path, "/v1/collections/")
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return "/v1/collections/{collection}" + rest[i:]
		}
		return "/v1/collections/{collection}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSearch(service, mode string, hits int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.searchTotal.WithLabelValues(service, mode).Inc()
	m.searchHits.WithLabelValues(service, mode).Observe(float64(hits))
	m.searchDuration.WithLabelValues(service, mode).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordIngest(service string, report *domain.IngestReport) {
	if report == nil {
		return
	}
	m.ingestDocsTotal.WithLabelValues(service, "kept").Add(float64(report.Stats.Kept))
	m.ingestDocsTotal.WithLabelValues(service, "too_short").Add(float64(report.Stats.TooShort))
	m.ingestDocsTotal.WithLabelValues(service, "dedup").Add(float64(report.Stats.Dedup))
	m.ingestChunksTotal.WithLabelValues(service).Add(float64(report.Chunks))
}

func (m *HTTPServerMetrics) RecordLexicalRebuild(service, collection string, docs int, took time.Duration) {
	m.lexicalRebuild.WithLabelValues(service).Observe(took.Seconds())
	m.lexicalDocs.WithLabelValues(service, collection).Set(float64(docs))
}

func (m *HTTPServerMetrics) RecordEvaluation(service string, report *domain.EvaluationReport) {
	if report == nil {
		return
	}
	m.evaluationRecall.WithLabelValues(service, report.Collection).Set(report.Summary.MeanRecall)
	m.evaluationPrecision.WithLabelValues(service, report.Collection).Set(report.Summary.MeanPrecision)
	if report.Summary.Failed > 0 {
		m.evaluationFailed.WithLabelValues(service, report.Collection).Add(float64(report.Summary.Failed))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
