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

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	decisionsTotal    *prometheus.CounterVec
	matchTierTotal    *prometheus.CounterVec
	embeddingSource   *prometheus.CounterVec
	duplicatesTotal   *prometheus.CounterVec
	decisionDuration  *prometheus.HistogramVec
	chatRepliesTotal  *prometheus.CounterVec
	chatDuration      *prometheus.HistogramVec
	corpusImportTotal *prometheus.CounterVec
	circuitOpen       *prometheus.GaugeVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "paa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paa",
			Subsystem: "retrieval",
			Name:      "decisions_total",
			Help:      "Total response-mode decisions by mode and reason.",
		},
		[]string{"service", "mode", "reason"},
	)
	matchTierTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paa",
			Subsystem: "retrieval",
			Name:      "match_tier_total",
			Help:      "Best-candidate confidence tier per decision.",
		},
		[]string{"service", "tier"},
	)
	embeddingSource := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paa",
			Subsystem: "retrieval",
			Name:      "embedding_source_total",
			Help:      "Query embeddings by the provider that produced them.",
		},
		[]string{"service", "provider"},
	)
	duplicatesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paa",
			Subsystem: "retrieval",
			Name:      "duplicates_total",
			Help:      "Decisions switched to generative mode by duplicate detection.",
		},
		[]string{"service"},
	)
	decisionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paa",
			Subsystem: "retrieval",
			Name:      "decision_duration_seconds",
			Help:      "Retrieval decision duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
		[]string{"service"},
	)
	chatRepliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paa",
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Total chat replies by response mode.",
		},
		[]string{"service", "mode"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paa",
			Subsystem: "chat",
			Name:      "reply_duration_seconds",
			Help:      "End-to-end chat reply duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	corpusImportTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paa",
			Subsystem: "corpus",
			Name:      "entries_total",
			Help:      "Corpus entries processed by import outcome.",
		},
		[]string{"service", "outcome"},
	)

	circuitOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "paa",
			Subsystem: "dependency",
			Name:      "circuit_open",
			Help:      "1 while the circuit breaker of a dependency operation is open.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		decisionsTotal,
		matchTierTotal,
		embeddingSource,
		duplicatesTotal,
		decisionDuration,
		chatRepliesTotal,
		chatDuration,
		corpusImportTotal,
		circuitOpen,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		service:           service,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		decisionsTotal:    decisionsTotal,
		matchTierTotal:    matchTierTotal,
		embeddingSource:   embeddingSource,
		duplicatesTotal:   duplicatesTotal,
		decisionDuration:  decisionDuration,
		chatRepliesTotal:  chatRepliesTotal,
		chatDuration:      chatDuration,
		corpusImportTotal: corpusImportTotal,
		circuitOpen:       circuitOpen,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the registry so other collectors can share /metrics.
func (m *HTTPServerMetrics) Registry() *prometheus.Registry {
	return m.registry
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// ObserveDecision implements ports.DecisionObserver.
func (m *HTTPServerMetrics) ObserveDecision(decision domain.Decision, elapsedSeconds float64) {
	m.decisionsTotal.WithLabelValues(m.service, string(decision.Mode), string(decision.Reason)).Inc()
	m.decisionDuration.WithLabelValues(m.service).Observe(elapsedSeconds)

	tier := "none"
	if decision.Best != nil && decision.Best.Tier != "" {
		tier = string(decision.Best.Tier)
	}
	m.matchTierTotal.WithLabelValues(m.service, tier).Inc()

	provider := decision.EmbeddingSource
	if provider == "" {
		provider = domain.ProviderNone
	}
	m.embeddingSource.WithLabelValues(m.service, provider).Inc()

	if decision.DuplicateForced {
		m.duplicatesTotal.WithLabelValues(m.service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordChatReply(mode domain.ResponseMode, duration time.Duration) {
	label := string(mode)
	if label == "" {
		label = "unknown"
	}
	m.chatRepliesTotal.WithLabelValues(m.service, label).Inc()
	m.chatDuration.WithLabelValues(m.service, label).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordCorpusImport(result domain.CorpusImportResult) {
	if result.Imported > 0 {
		m.corpusImportTotal.WithLabelValues(m.service, "imported").Add(float64(result.Imported))
	}
	if result.Skipped > 0 {
		m.corpusImportTotal.WithLabelValues(m.service, "skipped").Add(float64(result.Skipped))
	}
}

// SetCircuitOpen tracks breaker transitions of calls to ollama, qdrant and
// nats. A half-open breaker counts as closed.
func (m *HTTPServerMetrics) SetCircuitOpen(operation string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.circuitOpen.WithLabelValues(m.service, operation).Set(v)
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
