package httpadapter

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/config"
	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type chatFake struct {
	reply *domain.ChatReply
	err   error
	got   domain.ChatRequest
}

func (f *chatFake) Reply(_ context.Context, req domain.ChatRequest) (*domain.ChatReply, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

type deciderFake struct {
	decision domain.Decision
	got      domain.DecisionInput
}

func (f *deciderFake) Decide(_ context.Context, input domain.DecisionInput) domain.Decision {
	f.got = input
	return f.decision
}

type corpusFake struct {
	entries  []domain.QAEntry
	imported []domain.QAEntry
	filename string
	body     string
	err      error
	cleared  bool
}

func (f *corpusFake) ImportFile(_ context.Context, filename string, body io.Reader) (domain.CorpusImportResult, error) {
	raw, _ := io.ReadAll(body)
	f.filename = filename
	f.body = string(raw)
	if f.err != nil {
		return domain.CorpusImportResult{}, f.err
	}
	return domain.CorpusImportResult{Imported: 2, Skipped: 1}, nil
}

func (f *corpusFake) Import(_ context.Context, entries []domain.QAEntry) (domain.CorpusImportResult, error) {
	f.imported = entries
	return domain.CorpusImportResult{Imported: len(entries)}, nil
}

func (f *corpusFake) Clear(context.Context) (int, error) {
	f.cleared = true
	return len(f.entries), nil
}

func (f *corpusFake) Snapshot() []domain.QAEntry {
	return f.entries
}

type ingestFake struct {
	err     error
	deleted string
}

func (f *ingestFake) Upload(_ context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}
	now := time.Now().UTC()
	return &domain.Document{
		ID:          "doc-1",
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: "doc-1_file.txt",
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (f *ingestFake) DeleteDocument(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = id
	return nil
}

type docsFake struct {
	err error
}

func (f docsFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, Filename: "a.txt", MimeType: "text/plain", StoragePath: "a.txt", Status: domain.StatusReady}, nil
}

type testServices struct {
	chat    *chatFake
	decider *deciderFake
	corpus  *corpusFake
	ingest  *ingestFake
	docs    docsFake
}

func newTestServices() *testServices {
	return &testServices{
		chat: &chatFake{reply: &domain.ChatReply{
			ConversationID: "conv-1",
			Answer:         "Be gentle with yourself.",
			Mode:           domain.ModeDocument,
			Reason:         domain.ReasonConfidentMatch,
			Tier:           domain.TierExact,
			Percentage:     100,
		}},
		decider: &deciderFake{decision: domain.Decision{Mode: domain.ModeGenerative, Reason: domain.ReasonNoCandidate, TurnCount: 1}},
		corpus:  &corpusFake{},
		ingest:  &ingestFake{},
	}
}

func testConfig() config.Config {
	return config.Config{
		APIValidateRequests:  true,
		CorpusUploadMaxBytes: 1 << 20,
	}
}

func newTestHandler(t *testing.T, cfg config.Config, s *testServices) http.Handler {
	t.Helper()
	handler, err := NewRouter(cfg, Services{
		Chat:      s.chat,
		Decider:   s.decider,
		Corpus:    s.corpus,
		Ingest:    s.ingest,
		Documents: s.docs,
	}).Handler()
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	return handler
}
