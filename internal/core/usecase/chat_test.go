package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

func TestChatReplyDocumentModeReturnsVerbatimAnswer(t *testing.T) {
	match := &domain.MatchCandidate{
		SourceID:   "anger-1",
		Score:      1,
		Tier:       domain.TierExact,
		Percentage: 100,
		Type:       domain.MatchExactQA,
		Detail:     domain.ExactQADetail{EntryID: "anger-1", Answer: "Seek refuge and pause before reacting."},
	}
	decider := &deciderFake{decision: domain.Decision{
		Mode: domain.ModeDocument, Reason: domain.ReasonConfidentMatch, Match: match, Best: match, Citation: true,
	}}
	generator := &generatorFake{answer: "unused"}
	store := &conversationStoreFake{}
	uc := NewChatUseCase(decider, generator, store, 0)

	reply, err := uc.Reply(context.Background(), domain.ChatRequest{UserID: "u1", Message: "how can i control my anger", Emotion: domain.EmotionAngry})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply.Answer != "Seek refuge and pause before reacting." || reply.Mode != domain.ModeDocument {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Source != "anger-1" {
		t.Fatalf("expected citation source, got %q", reply.Source)
	}
	if reply.ConversationID == "" {
		t.Fatalf("expected generated conversation id")
	}
	if generator.calls != 0 {
		t.Fatalf("document mode must not call the generator")
	}
	if decider.input.Emotion != domain.EmotionAngry {
		t.Fatalf("expected emotion forwarded to decider")
	}
	if len(store.turns) != 2 || store.turns[0].Role != domain.RoleUser || store.turns[1].Mode != string(domain.ModeDocument) {
		t.Fatalf("expected user and assistant turns, got %+v", store.turns)
	}
}

func TestChatReplyGenerativeModePassesContextAndVariation(t *testing.T) {
	best := domain.MatchCandidate{SourceID: "e1", Tier: domain.TierExact, Percentage: 97, Type: domain.MatchExactQA, Detail: domain.ExactQADetail{Answer: "a"}}
	decider := &deciderFake{decision: domain.Decision{
		Mode:            domain.ModeGenerative,
		Reason:          domain.ReasonDuplicate,
		Best:            &best,
		Context:         []domain.MatchCandidate{best, best},
		DuplicateForced: true,
	}}
	generator := &generatorFake{answer: "fresh wording"}
	store := &conversationStoreFake{turns: []domain.ConversationTurn{{Role: domain.RoleUser, Text: "earlier"}}}
	uc := NewChatUseCase(decider, generator, store, 10)

	reply, err := uc.Reply(context.Background(), domain.ChatRequest{UserID: "u1", ConversationID: "c1", Message: "again"})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply.Answer != "fresh wording" || reply.Mode != domain.ModeGenerative || reply.Reason != domain.ReasonDuplicate {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if !generator.varyPhrasing || len(generator.context) != 2 {
		t.Fatalf("expected variation flag and context, got vary=%v context=%d", generator.varyPhrasing, len(generator.context))
	}
	if len(reply.Sources) != 1 || reply.Sources[0] != "e1" {
		t.Fatalf("expected deduplicated sources, got %v", reply.Sources)
	}
	if len(decider.input.History) != 1 {
		t.Fatalf("expected history forwarded, got %d turns", len(decider.input.History))
	}
}

func TestChatReplyRejectsEmptyMessage(t *testing.T) {
	uc := NewChatUseCase(&deciderFake{}, &generatorFake{}, &conversationStoreFake{}, 0)
	_, err := uc.Reply(context.Background(), domain.ChatRequest{UserID: "u1", Message: "  "})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestChatReplyGeneratorError(t *testing.T) {
	decider := &deciderFake{decision: domain.Decision{Mode: domain.ModeGenerative, Reason: domain.ReasonNoCandidate}}
	store := &conversationStoreFake{}
	uc := NewChatUseCase(decider, &generatorFake{err: errors.New("model down")}, store, 0)

	_, err := uc.Reply(context.Background(), domain.ChatRequest{UserID: "u1", Message: "hi"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(store.turns) != 0 {
		t.Fatalf("expected no turns recorded on failure")
	}
}

func TestChatReplyForwardsPersistedTurnCount(t *testing.T) {
	decider := &deciderFake{decision: domain.Decision{Mode: domain.ModeGenerative, Reason: domain.ReasonNoCandidate}}
	store := &conversationStoreFake{turn: 37}
	uc := NewChatUseCase(decider, &generatorFake{answer: "ok"}, store, 4)

	if _, err := uc.Reply(context.Background(), domain.ChatRequest{UserID: "u1", ConversationID: "c1", Message: "hello again"}); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if decider.input.PriorUserTurns != 37 {
		t.Fatalf("expected persisted turn count 37, got %d", decider.input.PriorUserTurns)
	}
}
