package corpusfile

import (
	"context"
	"encoding/json"
	"io"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type jsonEntry struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Emotion  string `json:"emotion"`
	Category string `json:"category"`
}

// JSONParser accepts either an array of entries or {"entries": [...]}.
type JSONParser struct{}

func (JSONParser) Parse(_ context.Context, _ string, body io.Reader) ([]domain.QAEntry, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, parseError("read json corpus", err)
	}

	var items []jsonEntry
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Entries []jsonEntry `json:"entries"`
		}
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return nil, parseError("parse json corpus", err)
		}
		items = wrapped.Entries
	}

	entries := make([]domain.QAEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, domain.QAEntry{
			ID:       item.ID,
			Question: item.Question,
			Answer:   item.Answer,
			Emotion:  domain.ParseEmotion(item.Emotion),
			Category: item.Category,
		})
	}
	return entries, nil
}
