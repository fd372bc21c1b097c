package ports

import (
	"context"
	"io"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveChunkCount(ctx context.Context, id string, chunks int) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores source documents and corpus files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Embedder builds vectors through an external embedding model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingStrategy is one entry of an ordered embedding fallback list.
type EmbeddingStrategy interface {
	Name() string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TextEmbedder always yields a vector; failures degrade to a fallback
// strategy or, at worst, a zero vector with provider "none".
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) domain.Embedding
	Dimension() int
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorIndex stores (id, vector, text, metadata) records. Implementations
// must reject vectors whose length differs from the index dimension.
type VectorIndex interface {
	Put(ctx context.Context, record domain.VectorRecord) error
	Get(ctx context.Context, id string) (*domain.VectorRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteWhere(ctx context.Context, filters map[string]string) (int, error)
	SearchSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]domain.ScoredRecord, error)
	SearchByMetadata(ctx context.Context, filters map[string]string, limit int) ([]domain.VectorRecord, error)
}

// CorpusStore persists the Q&A training corpus.
type CorpusStore interface {
	UpsertEntries(ctx context.Context, entries []domain.QAEntry) error
	ListEntries(ctx context.Context) ([]domain.QAEntry, error)
	DeleteAll(ctx context.Context) (int, error)
}

// CorpusFileParser turns an uploaded corpus file into raw entries.
type CorpusFileParser interface {
	Parse(ctx context.Context, filename string, body io.Reader) ([]domain.QAEntry, error)
}

// AnswerGenerator is the generative-model collaborator.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, context []domain.MatchCandidate, varyPhrasing bool) (string, error)
}

// ConversationStore persists conversation state and turns.
type ConversationStore interface {
	EnsureConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error)
	NextUserTurn(ctx context.Context, userID, conversationID string) (int, error)
	AppendTurn(ctx context.Context, turn domain.ConversationTurn) error
	ListRecentTurns(ctx context.Context, userID, conversationID string, limit int) ([]domain.ConversationTurn, error)
}

// DecisionObserver receives one callback per finished retrieval decision.
type DecisionObserver interface {
	ObserveDecision(decision domain.Decision, elapsedSeconds float64)
}
