package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.TextEmbedder
	index     ports.VectorIndex
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.TextEmbedder,
	index ports.VectorIndex,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, count, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveChunkCount(ctx, doc.ID, count); err != nil {
		err = fmt.Errorf("save chunk count: %w", err)
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (*domain.Document, int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return nil, 0, err
	}

	text, err := uc.extractText(ctx, doc)
	if err != nil {
		return nil, 0, err
	}

	chunks, err := uc.chunk(ctx, text)
	if err != nil {
		return nil, 0, err
	}

	// Reprocessing replaces every chunk of the document.
	if _, err := uc.index.DeleteWhere(ctx, map[string]string{domain.MetaDocumentID: doc.ID}); err != nil {
		return nil, 0, fmt.Errorf("drop previous chunks: %w", err)
	}

	for i, chunk := range uc.embed(ctx, doc, chunks) {
		if err := uc.indexChunk(ctx, doc, chunk); err != nil {
			return nil, 0, fmt.Errorf("index chunk %d: %w", i, err)
		}
	}

	return doc, len(chunks), nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) chunk(_ context.Context, text string) ([]string, error) {
	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

// embed never fails: chunks the chain could not embed keep a zero vector
// tagged "none" and stay reachable through the lexical evidence scan.
func (uc *ProcessDocumentUseCase) embed(ctx context.Context, doc *domain.Document, chunks []string) []domain.DocumentChunk {
	out := make([]domain.DocumentChunk, 0, len(chunks))
	for i, text := range chunks {
		embedding := uc.embedder.EmbedText(ctx, text)
		out = append(out, domain.DocumentChunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, i),
			DocumentID: doc.ID,
			ChunkIndex: i,
			Text:       text,
			Embedding:  embedding,
			Metadata: map[string]string{
				domain.MetaKind:       domain.KindChunk,
				domain.MetaDocumentID: doc.ID,
				domain.MetaChunkIndex: strconv.Itoa(i),
				domain.MetaFilename:   doc.Filename,
				domain.MetaCategory:   doc.Category,
				domain.MetaProvider:   embedding.Provider,
			},
		})
	}
	return out
}

func (uc *ProcessDocumentUseCase) indexChunk(ctx context.Context, doc *domain.Document, chunk domain.DocumentChunk) error {
	record := domain.VectorRecord{
		ID:       chunk.ID,
		Vector:   chunk.Embedding.Values,
		Text:     chunk.Text,
		Metadata: chunk.Metadata,
	}
	if err := uc.index.Put(ctx, record); err != nil {
		return fmt.Errorf("put %s chunk in vector index: %w", doc.ID, err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
