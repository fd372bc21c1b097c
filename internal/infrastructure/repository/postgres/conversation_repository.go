package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// EnsureConversation creates the conversation row if needed and returns it.
func (r *ConversationRepository) EnsureConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversations (user_id, conversation_id, current_user_turn, created_at, updated_at)
VALUES ($1, $2, 0, $3, $3)
ON CONFLICT (user_id, conversation_id) DO NOTHING
`, userID, conversationID, now)
	if err != nil {
		return nil, fmt.Errorf("ensure conversation insert: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT user_id, conversation_id, current_user_turn, created_at, updated_at
FROM conversations
WHERE user_id = $1 AND conversation_id = $2
`, userID, conversationID)

	var conv domain.Conversation
	if err := row.Scan(
		&conv.UserID,
		&conv.ConversationID,
		&conv.CurrentUserTurn,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("ensure conversation select: %w", err)
	}
	return &conv, nil
}

// NextUserTurn advances the user-turn counter and returns the new value.
// The upsert creates the conversation on first use, so concurrent replies
// in one conversation never share a turn number.
func (r *ConversationRepository) NextUserTurn(ctx context.Context, userID, conversationID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO conversations (user_id, conversation_id, current_user_turn, created_at, updated_at)
VALUES ($1, $2, 1, $3, $3)
ON CONFLICT (user_id, conversation_id)
DO UPDATE SET current_user_turn = conversations.current_user_turn + 1, updated_at = EXCLUDED.updated_at
RETURNING current_user_turn
`, userID, conversationID, time.Now().UTC())

	var currentTurn int
	if err := row.Scan(&currentTurn); err != nil {
		return 0, fmt.Errorf("next user turn: %w", err)
	}
	return currentTurn, nil
}

func (r *ConversationRepository) AppendTurn(ctx context.Context, turn domain.ConversationTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO conversation_turns (id, user_id, conversation_id, role, text, mode, user_turn, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, turn.ID, turn.UserID, turn.ConversationID, string(turn.Role), turn.Text, turn.Mode, turn.UserTurn, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// ListRecentTurns returns up to limit turns in chronological order.
func (r *ConversationRepository) ListRecentTurns(ctx context.Context, userID, conversationID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, conversation_id, role, text, mode, user_turn, created_at
FROM conversation_turns
WHERE user_id = $1 AND conversation_id = $2
ORDER BY user_turn DESC, created_at DESC
LIMIT $3
`, userID, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ConversationTurn, 0, limit)
	for rows.Next() {
		var turn domain.ConversationTurn
		var role string
		if err := rows.Scan(
			&turn.ID,
			&turn.UserID,
			&turn.ConversationID,
			&role,
			&turn.Text,
			&turn.Mode,
			&turn.UserTurn,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recent turn: %w", err)
		}
		turn.Role = domain.TurnRole(role)
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent turns: %w", err)
	}

	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
