package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

const defaultHistoryLimit = 20

type ChatUseCase struct {
	decider       ports.ResponseDecider
	generator     ports.AnswerGenerator
	conversations ports.ConversationStore
	historyLimit  int
}

func NewChatUseCase(
	decider ports.ResponseDecider,
	generator ports.AnswerGenerator,
	conversations ports.ConversationStore,
	historyLimit int,
) *ChatUseCase {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &ChatUseCase{
		decider:       decider,
		generator:     generator,
		conversations: conversations,
		historyLimit:  historyLimit,
	}
}

func (uc *ChatUseCase) Reply(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	message := strings.TrimSpace(req.Message)
	userID := strings.TrimSpace(req.UserID)
	if message == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat reply", errors.New("message is required"))
	}
	if userID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat reply", errors.New("user_id is required"))
	}
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	conversation, err := uc.conversations.EnsureConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation: %w", err)
	}
	history, err := uc.conversations.ListRecentTurns(ctx, userID, conversationID, uc.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}

	decision := uc.decider.Decide(ctx, domain.DecisionInput{
		Query:          message,
		Emotion:        req.Emotion,
		History:        history,
		PriorUserTurns: conversation.CurrentUserTurn,
	})

	reply := &domain.ChatReply{
		ConversationID: conversationID,
		Mode:           decision.Mode,
		Reason:         decision.Reason,
	}
	if decision.Best != nil {
		reply.Tier = decision.Best.Tier
		reply.Percentage = decision.Best.Percentage
	}

	if answer, ok := documentAnswer(decision); ok {
		reply.Answer = answer
		if decision.Citation {
			reply.Source = decision.Match.SourceID
		}
	} else {
		// A document decision without an answer cannot be honoured.
		reply.Mode = domain.ModeGenerative
		answer, err := uc.generator.GenerateAnswer(ctx, message, decision.Context, decision.DuplicateForced)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		reply.Answer = answer
		reply.Sources = contextSources(decision.Context)
	}

	if err := uc.recordTurns(ctx, userID, conversationID, message, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func documentAnswer(decision domain.Decision) (string, bool) {
	if decision.Mode != domain.ModeDocument || decision.Match == nil {
		return "", false
	}
	answer, ok := decision.Match.Answer()
	if !ok || strings.TrimSpace(answer) == "" {
		return "", false
	}
	return answer, true
}

func contextSources(candidates []domain.MatchCandidate) []string {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.SourceID]; ok || c.SourceID == "" {
			continue
		}
		seen[c.SourceID] = struct{}{}
		out = append(out, c.SourceID)
	}
	return out
}

func (uc *ChatUseCase) recordTurns(ctx context.Context, userID, conversationID, message string, reply *domain.ChatReply) error {
	turn, err := uc.conversations.NextUserTurn(ctx, userID, conversationID)
	if err != nil {
		return fmt.Errorf("next user turn: %w", err)
	}
	now := time.Now().UTC()
	turns := []domain.ConversationTurn{
		{
			ID:             uuid.NewString(),
			UserID:         userID,
			ConversationID: conversationID,
			Role:           domain.RoleUser,
			Text:           message,
			UserTurn:       turn,
			CreatedAt:      now,
		},
		{
			ID:             uuid.NewString(),
			UserID:         userID,
			ConversationID: conversationID,
			Role:           domain.RoleAssistant,
			Text:           reply.Answer,
			Mode:           string(reply.Mode),
			UserTurn:       turn,
			CreatedAt:      now.Add(time.Millisecond),
		},
	}
	for _, t := range turns {
		if err := uc.conversations.AppendTurn(ctx, t); err != nil {
			return fmt.Errorf("append %s turn: %w", t.Role, err)
		}
	}
	return nil
}
