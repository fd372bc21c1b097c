package domain

import "time"

type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

type Conversation struct {
	UserID          string    `json:"user_id"`
	ConversationID  string    `json:"conversation_id"`
	CurrentUserTurn int       `json:"current_user_turn"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ConversationTurn is one message of an externally owned conversation history.
type ConversationTurn struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Role           TurnRole  `json:"role"`
	Text           string    `json:"text"`
	Mode           string    `json:"mode,omitempty"`
	UserTurn       int       `json:"user_turn"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserTexts returns the text of the last limit user turns, oldest first.
func UserTexts(turns []ConversationTurn, limit int) []string {
	out := make([]string, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == RoleUser {
			out = append(out, turn.Text)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
