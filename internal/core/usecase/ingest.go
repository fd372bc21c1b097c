package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

const maxStoredNameLength = 96

// IngestDocumentUseCase accepts source documents for the knowledge base.
// Extraction and indexing happen asynchronously once the ingestion event
// is consumed.
type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	chunks  ports.VectorIndex
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	chunks ports.VectorIndex,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		chunks:  chunks,
	}
}

// Upload stores the file, records its metadata and announces it to the
// worker. A failed step undoes the earlier ones where it can: the stored
// file is removed when metadata cannot be written, and the document is
// marked failed when the event cannot be published.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("filename is required"))
	}
	if body == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("body is required"))
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    strings.TrimSpace(mimeType),
		StoragePath: id + "_" + storedName(filename),
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.storage.Save(ctx, doc.StoragePath, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		_ = uc.storage.Remove(context.WithoutCancel(ctx), doc.StoragePath)
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		_ = uc.repo.UpdateStatus(context.WithoutCancel(ctx), doc.ID, domain.StatusFailed, "ingestion event not published")
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

// DeleteDocument removes the document together with every indexed chunk
// and the stored source file.
func (uc *IngestDocumentUseCase) DeleteDocument(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if uc.chunks != nil {
		if _, err := uc.chunks.DeleteWhere(ctx, map[string]string{domain.MetaDocumentID: doc.ID}); err != nil {
			return fmt.Errorf("delete document chunks: %w", err)
		}
	}
	if err := uc.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document metadata: %w", err)
	}
	if err := uc.storage.Remove(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("remove stored document: %w", err)
	}
	return nil
}

// storedName reduces an uploaded filename to a safe storage key suffix.
// Letters and digits of any script survive; everything else becomes "_".
// Long names keep their extension.
func storedName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return "document.bin"
	}

	runes := []rune(cleaned)
	if len(runes) <= maxStoredNameLength {
		return cleaned
	}
	ext := []rune(filepath.Ext(cleaned))
	if len(ext) >= maxStoredNameLength {
		ext = nil
	}
	return string(runes[:maxStoredNameLength-len(ext)]) + string(ext)
}
