package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/infrastructure/vector/memory"
)

func TestIngestUploadSuccess(t *testing.T) {
	repo := &docRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, memory.New(2))

	doc, err := uc.Upload(context.Background(), "report 1.txt", "text/plain", bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected document id")
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", doc.Status)
	}
	if repo.created == nil {
		t.Fatalf("expected repo.Create call")
	}
	if queue.documentID != doc.ID {
		t.Fatalf("expected queued doc id %s, got %s", doc.ID, queue.documentID)
	}
	if !strings.Contains(storage.savedKey, "_report_1.txt") {
		t.Fatalf("expected sanitized key suffix, got %s", storage.savedKey)
	}
	if storage.savedBody != "hello" {
		t.Fatalf("expected saved body hello, got %s", storage.savedBody)
	}
}

func TestIngestUploadQueueErrorMarksDocumentFailed(t *testing.T) {
	repo := &docRepoFake{}
	uc := NewIngestDocumentUseCase(repo, &storageFake{}, &queueFake{err: errors.New("queue down")}, nil)

	_, err := uc.Upload(context.Background(), "report.txt", "text/plain", bytes.NewBufferString("hello"))
	if err == nil || !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish error, got %v", err)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusFailed {
		t.Fatalf("expected document marked failed, got %+v", repo.statusCalls)
	}
}

func TestIngestUploadMetadataErrorRemovesStoredFile(t *testing.T) {
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(&docRepoFake{createErr: errors.New("db down")}, storage, queue, nil)

	_, err := uc.Upload(context.Background(), "report.txt", "text/plain", bytes.NewBufferString("hello"))
	if err == nil || !strings.Contains(err.Error(), "create document metadata") {
		t.Fatalf("expected metadata error, got %v", err)
	}
	if storage.removedKey == "" || storage.removedKey != storage.savedKey {
		t.Fatalf("expected stored file %q to be removed, got %q", storage.savedKey, storage.removedKey)
	}
	if queue.documentID != "" {
		t.Fatalf("event must not be published, got %q", queue.documentID)
	}
}

func TestIngestUploadRejectsMissingFilename(t *testing.T) {
	storage := &storageFake{}
	uc := NewIngestDocumentUseCase(&docRepoFake{}, storage, &queueFake{}, nil)

	_, err := uc.Upload(context.Background(), "   ", "text/plain", bytes.NewBufferString("hello"))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if storage.savedKey != "" {
		t.Fatalf("nothing should be stored, got %q", storage.savedKey)
	}
}

func TestStoredName(t *testing.T) {
	long := strings.Repeat("a", 200) + ".pdf"
	tests := []struct {
		in   string
		want string
	}{
		{"report 1.txt", "report_1.txt"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.md`, "notes.md"},
		{"Отчёт.pdf", "Отчёт.pdf"},
		{".hidden", "hidden"},
		{"..", "document.bin"},
		{long, strings.Repeat("a", maxStoredNameLength-4) + ".pdf"},
	}
	for _, tt := range tests {
		if got := storedName(tt.in); got != tt.want {
			t.Fatalf("storedName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeleteDocumentRemovesChunksMetadataAndFile(t *testing.T) {
	ctx := context.Background()
	index := memory.New(2)
	for _, rec := range []domain.VectorRecord{
		{ID: "doc-1:0", Vector: []float32{1, 0}, Metadata: map[string]string{domain.MetaDocumentID: "doc-1"}},
		{ID: "doc-1:1", Vector: []float32{1, 0}, Metadata: map[string]string{domain.MetaDocumentID: "doc-1"}},
		{ID: "doc-2:0", Vector: []float32{0, 1}, Metadata: map[string]string{domain.MetaDocumentID: "doc-2"}},
	} {
		if err := index.Put(ctx, rec); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	repo := &docRepoFake{doc: &domain.Document{ID: "doc-1", StoragePath: "doc-1_a.txt"}}
	storage := &storageFake{}
	uc := NewIngestDocumentUseCase(repo, storage, &queueFake{}, index)

	if err := uc.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if index.Len() != 1 {
		t.Fatalf("expected only doc-2 chunk left, got %d", index.Len())
	}
	if repo.deletedID != "doc-1" || storage.removedKey != "doc-1_a.txt" {
		t.Fatalf("expected metadata and file removal, got repo=%q storage=%q", repo.deletedID, storage.removedKey)
	}
}

func TestDeleteDocumentNotFound(t *testing.T) {
	uc := NewIngestDocumentUseCase(&docRepoFake{}, &storageFake{}, &queueFake{}, memory.New(2))
	err := uc.DeleteDocument(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
