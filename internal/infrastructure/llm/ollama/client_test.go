package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/resilience"
)

func TestGeneratorBuildsContextPrompt(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":" ok "}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "gen", "embed"))
	answer, err := gen.GenerateAnswer(context.Background(), "question?", []domain.MatchCandidate{{
		Type:       domain.MatchDocumentChunk,
		Tier:       domain.TierMedium,
		Percentage: 64,
		Detail:     domain.DocumentChunkDetail{DocumentID: "doc-1", Text: "chunk text"},
	}}, false)
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "ok" {
		t.Fatalf("expected trimmed answer, got %q", answer)
	}
	if !strings.Contains(capturedPrompt, "question?") || !strings.Contains(capturedPrompt, "chunk text") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
	if strings.Contains(capturedPrompt, "different wording") {
		t.Fatalf("variation instruction must only appear for duplicates: %s", capturedPrompt)
	}
}

func TestGeneratorAsksForVariationOnDuplicate(t *testing.T) {
	prompt := buildAnswerPrompt("how do i pray", nil, true)
	if !strings.Contains(prompt, "different wording") {
		t.Fatalf("expected variation instruction, got %s", prompt)
	}
	if !strings.Contains(prompt, "no reference material") {
		t.Fatalf("expected empty reference marker, got %s", prompt)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be classified temporary, got %v", err)
	}
}

func TestEmbedRetriesThroughExecutor(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
	embedder := NewEmbedder(NewWithOptions(server.URL, "gen", "mxbai", Options{ResilienceExecutor: exec}))

	vector, err := embedder.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(vector))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
	if embedder.Name() != "ollama:mxbai" {
		t.Fatalf("unexpected provider name %q", embedder.Name())
	}
}

func TestClassifyOllamaError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"bad gateway", &HTTPStatusError{StatusCode: http.StatusBadGateway}, true, true},
		{"model missing", &HTTPStatusError{StatusCode: http.StatusNotFound}, false, false},
		{"canceled", context.Canceled, false, false},
		{"unknown", &json.SyntaxError{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyOllamaError(tt.err)
			if got.Retryable != tt.retryable || got.RecordFailure != tt.record {
				t.Fatalf("classifyOllamaError(%v) = %+v", tt.err, got)
			}
		})
	}
}

func TestGeneratorRaisesTemperatureForRepeatedQuestion(t *testing.T) {
	var temperatures []float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		temperatures = append(temperatures, payload.Options.Temperature)
		_, _ = w.Write([]byte(`{"response":"fine"}`))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "gen", "embed"))
	for _, vary := range []bool{false, true} {
		if _, err := gen.GenerateAnswer(context.Background(), "q", nil, vary); err != nil {
			t.Fatalf("GenerateAnswer() error = %v", err)
		}
	}
	if len(temperatures) != 2 || temperatures[0] != answerTemperature || temperatures[1] != variedTemperature {
		t.Fatalf("unexpected temperatures %v", temperatures)
	}
}

func TestGeneratorRejectsEmptyAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   "}`))
	}))
	defer server.Close()

	if _, err := NewGenerator(New(server.URL, "gen", "embed")).GenerateAnswer(context.Background(), "q", nil, false); err == nil {
		t.Fatal("expected error for empty answer")
	}
}

func TestEmbedChecksVectorCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected count mismatch error")
	}
	if _, err := embedder.EmbedQuery(context.Background(), "  "); !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable for blank text, got %v", err)
	}
}
