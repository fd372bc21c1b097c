package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

const maxJSONBodyBytes = 1 << 20

type decideRequest struct {
	Query   string                    `json:"query"`
	Emotion string                    `json:"emotion"`
	History []domain.ConversationTurn `json:"history"`
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Emotion = domain.ParseEmotion(string(req.Emotion))

	start := time.Now()
	reply, err := rt.services.Chat.Reply(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.services.Metrics != nil {
		rt.services.Metrics.RecordChatReply(reply.Mode, time.Since(start))
	}
	annotate(r.Context(), "conversation_id", reply.ConversationID, "response_mode", reply.Mode, "decision_reason", reply.Reason)
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	decision := rt.services.Decider.Decide(r.Context(), domain.DecisionInput{
		Query:   req.Query,
		Emotion: domain.ParseEmotion(req.Emotion),
		History: req.History,
	})
	annotate(r.Context(), "response_mode", decision.Mode, "decision_reason", decision.Reason, "embedding_source", decision.EmbeddingSource)
	writeJSON(w, http.StatusOK, decision)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("request body too large"))
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json"))
	}
	return nil
}
