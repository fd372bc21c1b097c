package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kirillkom/counsel-assistant/internal/config"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
	"github.com/kirillkom/counsel-assistant/internal/observability/metrics"
)

// Services are the inbound ports served over HTTP. Metrics and Logger are
// optional.
type Services struct {
	Chat      ports.ChatResponder
	Decider   ports.ResponseDecider
	Corpus    ports.CorpusManager
	Ingest    ports.DocumentIngestor
	Documents ports.DocumentReader
	Metrics   *metrics.HTTPServerMetrics
	Logger    *slog.Logger
}

type Router struct {
	cfg      config.Config
	services Services
}

func NewRouter(cfg config.Config, services Services) *Router {
	return &Router{cfg: cfg, services: services}
}

// Handler builds the mux and the middleware chain: request id, access log,
// metrics, auth, rate limit, backpressure and OpenAPI validation.
func (rt *Router) Handler() (http.Handler, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.services.Metrics != nil {
		mux.Handle("GET /metrics", rt.services.Metrics.Handler())
	}
	mux.HandleFunc("POST /v1/chat", rt.chat)
	mux.HandleFunc("POST /v1/retrieval/decide", rt.decide)
	mux.HandleFunc("POST /v1/corpus/import", rt.importCorpusFile)
	mux.HandleFunc("POST /v1/corpus/entries", rt.importCorpusEntries)
	mux.HandleFunc("GET /v1/corpus", rt.listCorpus)
	mux.HandleFunc("DELETE /v1/corpus", rt.clearCorpus)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents/{document_id}", rt.getDocumentByID)
	mux.HandleFunc("DELETE /v1/documents/{document_id}", rt.deleteDocument)

	var handler http.Handler = mux
	if rt.cfg.APIValidateRequests {
		validator, err := newRequestValidator(context.Background())
		if err != nil {
			return nil, fmt.Errorf("init request validation: %w", err)
		}
		handler = validator.middleware(handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIBackpressureMax, rt.cfg.APIBackpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = apiKeyMiddleware(handler, rt.cfg.APIKey)
	if rt.services.Metrics != nil {
		handler = rt.services.Metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(handler, rt.services.Logger)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	entries := 0
	if rt.services.Corpus != nil {
		entries = len(rt.services.Corpus.Snapshot())
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "corpus_entries": entries})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
