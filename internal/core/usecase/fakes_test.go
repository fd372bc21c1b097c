package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type docRepoFake struct {
	doc           *domain.Document
	created       *domain.Document
	createErr     error
	getErr        error
	statusErr     error
	failStatusErr error
	chunkCountErr error
	statusCalls   []statusCall
	chunkCount    int
	deletedID     string
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.doc == nil {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copyDoc := *f.doc
	return &copyDoc, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if status == domain.StatusFailed && f.failStatusErr != nil {
		return f.failStatusErr
	}
	if f.statusErr != nil {
		return f.statusErr
	}
	return nil
}

func (f *docRepoFake) SaveChunkCount(_ context.Context, _ string, chunks int) error {
	if f.chunkCountErr != nil {
		return f.chunkCountErr
	}
	f.chunkCount = chunks
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, id string) error {
	f.deletedID = id
	return nil
}

type storageFake struct {
	savedKey   string
	savedBody  string
	removedKey string
	err        error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *storageFake) Remove(_ context.Context, key string) error {
	f.removedKey = key
	return nil
}

type queueFake struct {
	documentID string
	err        error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

// textEmbedderFake returns fixed vectors per text and a provider tag;
// unknown texts get a zero vector tagged "none".
type textEmbedderFake struct {
	dim      int
	provider string
	vectors  map[string][]float32
	calls    int
	block    bool
}

func (f *textEmbedderFake) EmbedText(ctx context.Context, text string) domain.Embedding {
	f.calls++
	if f.block {
		<-ctx.Done()
		return domain.Embedding{Values: make([]float32, f.dim), Provider: domain.ProviderNone}
	}
	if v, ok := f.vectors[text]; ok {
		return domain.Embedding{Values: v, Provider: f.provider}
	}
	return domain.Embedding{Values: make([]float32, f.dim), Provider: domain.ProviderNone}
}

func (f *textEmbedderFake) Dimension() int { return f.dim }

type staticCorpus []domain.QAEntry

func (c staticCorpus) Snapshot() []domain.QAEntry { return c }

type corpusStoreFake struct {
	mu       sync.Mutex
	entries  []domain.QAEntry
	upserted int
	err      error
}

func (f *corpusStoreFake) UpsertEntries(_ context.Context, entries []domain.QAEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserted += len(entries)
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *corpusStoreFake) ListEntries(context.Context) ([]domain.QAEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.QAEntry(nil), f.entries...), nil
}

func (f *corpusStoreFake) DeleteAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.entries)
	f.entries = nil
	return n, nil
}

type generatorFake struct {
	answer       string
	err          error
	question     string
	context      []domain.MatchCandidate
	varyPhrasing bool
	calls        int
}

func (f *generatorFake) GenerateAnswer(_ context.Context, question string, candidates []domain.MatchCandidate, vary bool) (string, error) {
	f.calls++
	f.question = question
	f.context = candidates
	f.varyPhrasing = vary
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type conversationStoreFake struct {
	turns []domain.ConversationTurn
	turn  int
}

func (f *conversationStoreFake) EnsureConversation(_ context.Context, userID, conversationID string) (*domain.Conversation, error) {
	return &domain.Conversation{UserID: userID, ConversationID: conversationID, CurrentUserTurn: f.turn}, nil
}

func (f *conversationStoreFake) NextUserTurn(context.Context, string, string) (int, error) {
	f.turn++
	return f.turn, nil
}

func (f *conversationStoreFake) AppendTurn(_ context.Context, turn domain.ConversationTurn) error {
	f.turns = append(f.turns, turn)
	return nil
}

func (f *conversationStoreFake) ListRecentTurns(_ context.Context, _, _ string, limit int) ([]domain.ConversationTurn, error) {
	out := f.turns
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return append([]domain.ConversationTurn(nil), out...), nil
}

type deciderFake struct {
	decision domain.Decision
	input    domain.DecisionInput
}

func (f *deciderFake) Decide(_ context.Context, input domain.DecisionInput) domain.Decision {
	f.input = input
	return f.decision
}

type observerFake struct {
	decisions []domain.Decision
}

func (f *observerFake) ObserveDecision(decision domain.Decision, _ float64) {
	f.decisions = append(f.decisions, decision)
}
