package usecase

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/vector/memory"
)

func angerCorpus() staticCorpus {
	return staticCorpus{{
		ID:       "anger-1",
		Question: "How can I control my anger?",
		Answer:   "Seek refuge and pause before reacting.",
		Emotion:  domain.EmotionAngry,
	}}
}

func TestDecideExactMatchYieldsDocumentMode(t *testing.T) {
	observer := &observerFake{}
	decider := NewResponseModeDecider(testRetrievalConfig(t), &textEmbedderFake{dim: 2}, angerCorpus(), DeciderOptions{Observer: observer})

	decision := decider.Decide(context.Background(), domain.DecisionInput{
		Query:   "how can i control my anger",
		Emotion: domain.EmotionAngry,
	})

	if decision.Mode != domain.ModeDocument || decision.Reason != domain.ReasonConfidentMatch {
		t.Fatalf("expected document mode, got %s/%s", decision.Mode, decision.Reason)
	}
	if decision.Match == nil || decision.Match.Score != 1 || decision.Match.Tier != domain.TierExact {
		t.Fatalf("expected exact match with score 1, got %+v", decision.Match)
	}
	if decision.Match.Percentage < 95 {
		t.Fatalf("expected percentage >= 95, got %f", decision.Match.Percentage)
	}
	answer, ok := decision.Match.Answer()
	if !ok || answer != "Seek refuge and pause before reacting." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if !decision.Citation || !decision.Cacheable {
		t.Fatalf("expected exact tier to be cited and cacheable")
	}
	if decision.TurnCount != 1 {
		t.Fatalf("expected first turn, got %d", decision.TurnCount)
	}
	if len(observer.decisions) != 1 {
		t.Fatalf("expected one observed decision, got %d", len(observer.decisions))
	}
}

func TestDecideDuplicateForcesGenerativeMode(t *testing.T) {
	decider := NewResponseModeDecider(testRetrievalConfig(t), &textEmbedderFake{dim: 2}, angerCorpus(), DeciderOptions{})

	decision := decider.Decide(context.Background(), domain.DecisionInput{
		Query:   "how can i control my anger",
		Emotion: domain.EmotionAngry,
		History: []domain.ConversationTurn{
			{Role: domain.RoleUser, Text: "How can I control my anger?"},
			{Role: domain.RoleAssistant, Text: "Seek refuge and pause before reacting."},
		},
	})

	if decision.Mode != domain.ModeGenerative || decision.Reason != domain.ReasonDuplicate {
		t.Fatalf("expected generative duplicate, got %s/%s", decision.Mode, decision.Reason)
	}
	if !decision.DuplicateForced {
		t.Fatalf("expected duplicate flag")
	}
	if decision.Match != nil {
		t.Fatalf("generative decision must not carry a match")
	}
	if decision.Best == nil || decision.Best.Percentage < 95 {
		t.Fatalf("expected best candidate kept as context, got %+v", decision.Best)
	}
	if len(decision.Context) == 0 {
		t.Fatalf("expected context candidates")
	}
	if decision.TurnCount != 2 {
		t.Fatalf("expected turn count 2, got %d", decision.TurnCount)
	}
}

func TestDecideTurnCountUsesPersistedCounter(t *testing.T) {
	decider := NewResponseModeDecider(testRetrievalConfig(t), &textEmbedderFake{dim: 2}, angerCorpus(), DeciderOptions{})

	history := make([]domain.ConversationTurn, 0, 20)
	for i := 0; i < 10; i++ {
		history = append(history,
			domain.ConversationTurn{Role: domain.RoleUser, Text: "message " + strconv.Itoa(i)},
			domain.ConversationTurn{Role: domain.RoleAssistant, Text: "reply"},
		)
	}

	decision := decider.Decide(context.Background(), domain.DecisionInput{
		Query:          "something new",
		History:        history,
		PriorUserTurns: 25,
	})
	if decision.TurnCount != 26 {
		t.Fatalf("expected turn 26 from persisted counter, got %d", decision.TurnCount)
	}

	windowOnly := decider.Decide(context.Background(), domain.DecisionInput{Query: "something new", History: history})
	if windowOnly.TurnCount != 11 {
		t.Fatalf("expected window-derived turn 11 without a counter, got %d", windowOnly.TurnCount)
	}
}

func TestChooseModeThresholdsOnPercentage(t *testing.T) {
	candidate := func(pct float64) *domain.MatchCandidate {
		return &domain.MatchCandidate{
			Percentage: pct,
			Type:       domain.MatchSemanticQA,
			Detail:     domain.SemanticQADetail{Answer: "answer"},
		}
	}

	tests := []struct {
		name      string
		candidate *domain.MatchCandidate
		duplicate bool
		mode      domain.ResponseMode
		reason    domain.DecisionReason
	}{
		{"confident", candidate(80), false, domain.ModeDocument, domain.ReasonConfidentMatch},
		{"just below threshold", candidate(79), false, domain.ModeGenerative, domain.ReasonLowConfidence},
		{"duplicate at 95", candidate(95), true, domain.ModeGenerative, domain.ReasonDuplicate},
		{"no candidate", nil, false, domain.ModeGenerative, domain.ReasonNoCandidate},
		{"chunk only", &domain.MatchCandidate{Percentage: 99, Type: domain.MatchDocumentChunk, Detail: domain.DocumentChunkDetail{Text: "t"}}, false, domain.ModeGenerative, domain.ReasonNoCandidate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, reason := chooseMode(tt.candidate, tt.duplicate, 80)
			if mode != tt.mode || reason != tt.reason {
				t.Fatalf("expected %s/%s, got %s/%s", tt.mode, tt.reason, mode, reason)
			}
		})
	}
}

func TestDecideEmptyCorpusFallsBackToGenerative(t *testing.T) {
	decider := NewResponseModeDecider(testRetrievalConfig(t), &textEmbedderFake{dim: 2}, staticCorpus{}, DeciderOptions{})
	decision := decider.Decide(context.Background(), domain.DecisionInput{Query: "hello"})
	if decision.Mode != domain.ModeGenerative || decision.Reason != domain.ReasonNoCandidate {
		t.Fatalf("expected generative/no_candidate, got %s/%s", decision.Mode, decision.Reason)
	}
	if decision.EmbeddingSource != domain.ProviderNone {
		t.Fatalf("expected embedding source none, got %q", decision.EmbeddingSource)
	}
}

func TestDecideUsesVectorChunksFromSameProvider(t *testing.T) {
	ctx := context.Background()
	index := memory.New(2)
	_ = index.Put(ctx, domain.VectorRecord{ID: "d1:0", Vector: []float32{1, 0}, Text: "same space", Metadata: map[string]string{
		domain.MetaKind: domain.KindChunk, domain.MetaDocumentID: "d1", domain.MetaChunkIndex: "0", domain.MetaProvider: "test",
	}})
	_ = index.Put(ctx, domain.VectorRecord{ID: "d2:0", Vector: []float32{1, 0}, Text: "other space", Metadata: map[string]string{
		domain.MetaKind: domain.KindChunk, domain.MetaDocumentID: "d2", domain.MetaChunkIndex: "0", domain.MetaProvider: "hash-v1",
	}})

	embedder := &textEmbedderFake{dim: 2, provider: "test", vectors: map[string][]float32{"query": {1, 0}}}
	decider := NewResponseModeDecider(testRetrievalConfig(t), embedder, staticCorpus{}, DeciderOptions{Chunks: index})

	decision := decider.Decide(ctx, domain.DecisionInput{Query: "query"})
	if len(decision.Context) != 1 {
		t.Fatalf("expected one same-provider chunk, got %+v", decision.Context)
	}
	chunk := decision.Context[0]
	if chunk.Type != domain.MatchDocumentChunk || chunk.SourceID != "d1:0" {
		t.Fatalf("unexpected chunk candidate: %+v", chunk)
	}
	if chunk.Tier != domain.TierExact {
		t.Fatalf("expected exact tier for identical vectors, got %s", chunk.Tier)
	}
	if decision.Mode != domain.ModeGenerative {
		t.Fatalf("chunks alone never produce document mode, got %s", decision.Mode)
	}
	if decision.Best == nil || decision.Best.SourceID != "d1:0" {
		t.Fatalf("expected best to report top chunk, got %+v", decision.Best)
	}
}

func TestDecideFallsBackToLexicalEvidenceScan(t *testing.T) {
	ctx := context.Background()
	index := memory.New(2)
	_ = index.Put(ctx, domain.VectorRecord{ID: "d1:0", Vector: []float32{0, 0}, Text: "Patience is beautiful. Patience grows slowly.", Metadata: map[string]string{
		domain.MetaKind: domain.KindChunk, domain.MetaDocumentID: "d1", domain.MetaChunkIndex: "0", domain.MetaProvider: domain.ProviderNone,
	}})
	_ = index.Put(ctx, domain.VectorRecord{ID: "d1:1", Vector: []float32{0, 0}, Text: "Nothing relevant here.", Metadata: map[string]string{
		domain.MetaKind: domain.KindChunk, domain.MetaDocumentID: "d1", domain.MetaChunkIndex: "1", domain.MetaProvider: domain.ProviderNone,
	}})

	decider := NewResponseModeDecider(testRetrievalConfig(t), &textEmbedderFake{dim: 2}, staticCorpus{}, DeciderOptions{Chunks: index})
	decision := decider.Decide(ctx, domain.DecisionInput{Query: "what is patience"})

	if len(decision.Context) != 1 {
		t.Fatalf("expected one evidence chunk, got %+v", decision.Context)
	}
	evidence := decision.Context[0]
	if evidence.Type != domain.MatchEvidenceChunk || evidence.Scale != domain.ScaleLexical {
		t.Fatalf("expected lexical evidence chunk, got %+v", evidence)
	}
	if evidence.Percentage < 50 || evidence.Percentage >= 80 {
		t.Fatalf("expected relevance between 1 and 5 to map into [50,80), got %f", evidence.Percentage)
	}
	detail := evidence.Detail.(domain.EvidenceChunkDetail)
	if detail.DocumentID != "d1" || detail.ChunkIndex != 0 {
		t.Fatalf("unexpected evidence detail: %+v", detail)
	}
}

func TestDecideRetrievalTimeoutDegradesToGenerative(t *testing.T) {
	cfg := testRetrievalConfig(t)
	cfg.RetrievalTimeout = 20 * time.Millisecond
	decider := NewResponseModeDecider(cfg, &textEmbedderFake{dim: 2, block: true}, angerCorpus(), DeciderOptions{})

	decision := decider.Decide(context.Background(), domain.DecisionInput{Query: "how can i control my anger"})
	if decision.Mode != domain.ModeGenerative || decision.Reason != domain.ReasonRetrievalTimeout {
		t.Fatalf("expected generative/retrieval_timeout, got %s/%s", decision.Mode, decision.Reason)
	}
	if decision.Best == nil {
		t.Fatalf("expected partial context to survive the timeout")
	}
}

func TestMatchQuestionReturnsBestCandidateWithoutDeciding(t *testing.T) {
	observer := &observerFake{}
	decider := NewResponseModeDecider(testRetrievalConfig(t), &textEmbedderFake{dim: 2}, angerCorpus(), DeciderOptions{Observer: observer})

	match := decider.MatchQuestion(context.Background(), "How can I control my anger?", domain.EmotionNone)
	if match == nil || match.SourceID != "anger-1" || match.Type != domain.MatchExactQA {
		t.Fatalf("expected exact anger match, got %+v", match)
	}
	if len(observer.decisions) != 0 {
		t.Fatal("matching alone must not record a decision")
	}
}
