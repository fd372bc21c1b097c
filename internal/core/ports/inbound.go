package ports

import (
	"context"
	"io"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous chunk indexing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// CorpusManager imports and clears the Q&A corpus.
type CorpusManager interface {
	ImportFile(ctx context.Context, filename string, body io.Reader) (domain.CorpusImportResult, error)
	Import(ctx context.Context, entries []domain.QAEntry) (domain.CorpusImportResult, error)
	Clear(ctx context.Context) (int, error)
	Snapshot() []domain.QAEntry
}

// ResponseDecider picks document or generative mode for one query.
type ResponseDecider interface {
	Decide(ctx context.Context, input domain.DecisionInput) domain.Decision
}

// QuestionMatcher finds the best corpus candidate without deciding a mode.
type QuestionMatcher interface {
	MatchQuestion(ctx context.Context, query string, emotion domain.Emotion) *domain.MatchCandidate
}

// ChatResponder answers one user message end to end.
type ChatResponder interface {
	Reply(ctx context.Context, req domain.ChatRequest) (*domain.ChatReply, error)
}
