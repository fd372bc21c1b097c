package nats

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// ingestEvent is the payload published on the ingestion subject.
type ingestEvent struct {
	DocumentID  string    `json:"document_id"`
	PublishedAt time.Time `json:"published_at"`
}

func encodeIngestEvent(documentID string, publishedAt time.Time) ([]byte, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode ingest event", errors.New("document id is empty"))
	}
	return json.Marshal(ingestEvent{DocumentID: documentID, PublishedAt: publishedAt})
}

// decodeIngestEvent also accepts a bare document id, which is what older
// publishers put on the subject.
func decodeIngestEvent(data []byte) (ingestEvent, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ingestEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode ingest event", errors.New("empty payload"))
	}
	if data[0] != '{' {
		return ingestEvent{DocumentID: string(data)}, nil
	}

	var event ingestEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return ingestEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode ingest event", err)
	}
	event.DocumentID = strings.TrimSpace(event.DocumentID)
	if event.DocumentID == "" {
		return ingestEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode ingest event", errors.New("document id is empty"))
	}
	return event, nil
}
