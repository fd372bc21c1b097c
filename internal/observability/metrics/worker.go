package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// WorkerMetrics covers the knowledge-base indexing loop: documents taken
// from the queue, how long they waited and how many chunks they produced.
type WorkerMetrics struct {
	registry *prometheus.Registry
	service  string

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	queueLag         prometheus.Histogram
	chunksIndexed    prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "paa",
			Subsystem:   "indexing",
			Name:        "documents_total",
			Help:        "Documents taken from the ingestion queue by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "paa",
			Subsystem:   "indexing",
			Name:        "document_duration_seconds",
			Help:        "Time spent extracting, chunking and embedding one document.",
			Buckets:     []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "paa",
			Subsystem:   "indexing",
			Name:        "documents_in_flight",
			Help:        "Documents currently being indexed.",
			ConstLabels: constLabels,
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "paa",
			Subsystem:   "indexing",
			Name:        "queue_lag_seconds",
			Help:        "Delay between upload and the start of indexing.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
	)
	chunksIndexed := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "paa",
			Subsystem:   "indexing",
			Name:        "chunks_per_document",
			Help:        "Chunks written to the vector index per indexed document.",
			Buckets:     []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(documentsTotal, documentDuration, inFlight, queueLag, chunksIndexed)

	return &WorkerMetrics{
		registry:         registry,
		service:          service,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		inFlight:         inFlight,
		queueLag:         queueLag,
		chunksIndexed:    chunksIndexed,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartDocument records the start of indexing and the time the document
// spent waiting in the queue. A zero uploadedAt skips the lag sample.
func (m *WorkerMetrics) StartDocument(uploadedAt time.Time) {
	m.inFlight.Inc()
	if uploadedAt.IsZero() {
		return
	}
	if lag := time.Since(uploadedAt); lag >= 0 {
		m.queueLag.Observe(lag.Seconds())
	}
}

// FinishDocument records the outcome of one document. chunks is only
// observed for indexed documents.
func (m *WorkerMetrics) FinishDocument(duration time.Duration, chunks int, err error) {
	m.inFlight.Dec()

	outcome := indexingOutcome(err)
	m.documentsTotal.WithLabelValues(outcome).Inc()
	m.documentDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if err == nil && chunks >= 0 {
		m.chunksIndexed.Observe(float64(chunks))
	}
}

func indexingOutcome(err error) string {
	switch {
	case err == nil:
		return "indexed"
	case domain.IsKind(err, domain.ErrTemporary):
		return "retryable"
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return "missing"
	default:
		return "failed"
	}
}
