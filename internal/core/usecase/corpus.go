package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
)

// CorpusService owns the read-mostly Q&A corpus. Readers get a snapshot
// slice that is never mutated after publication; writers build a new
// slice and swap it under the lock.
type CorpusService struct {
	store    ports.CorpusStore
	embedder ports.TextEmbedder
	parsers  map[string]ports.CorpusFileParser
	logger   *slog.Logger

	mu      sync.RWMutex
	entries []domain.QAEntry
}

// NewCorpusService wires the corpus. parsers is keyed by lower-case file
// extension including the dot, e.g. ".csv".
func NewCorpusService(
	store ports.CorpusStore,
	embedder ports.TextEmbedder,
	parsers map[string]ports.CorpusFileParser,
	logger *slog.Logger,
) *CorpusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorpusService{
		store:    store,
		embedder: embedder,
		parsers:  parsers,
		logger:   logger,
	}
}

func (s *CorpusService) Snapshot() []domain.QAEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// Reload replaces the snapshot with the persisted corpus.
func (s *CorpusService) Reload(ctx context.Context) error {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("list corpus entries: %w", err)
	}
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	s.logger.Info("corpus_loaded", "entries", len(entries))
	return nil
}

func (s *CorpusService) ImportFile(ctx context.Context, filename string, body io.Reader) (domain.CorpusImportResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	parser, ok := s.parsers[ext]
	if !ok {
		return domain.CorpusImportResult{}, domain.WrapError(
			domain.ErrInvalidInput,
			"import corpus file",
			fmt.Errorf("unsupported corpus file type %q", ext),
		)
	}
	entries, err := parser.Parse(ctx, filename, body)
	if err != nil {
		return domain.CorpusImportResult{}, fmt.Errorf("parse corpus file: %w", err)
	}
	return s.Import(ctx, entries)
}

// Import embeds, persists and publishes entries. Entries missing a
// question or an answer are skipped with a warning.
func (s *CorpusService) Import(ctx context.Context, entries []domain.QAEntry) (domain.CorpusImportResult, error) {
	result := domain.CorpusImportResult{}
	accepted := make([]domain.QAEntry, 0, len(entries))
	now := time.Now().UTC()

	for i, entry := range entries {
		entry.Question = strings.TrimSpace(entry.Question)
		entry.Answer = strings.TrimSpace(entry.Answer)
		entry.Category = strings.TrimSpace(entry.Category)
		entry.Emotion = domain.ParseEmotion(string(entry.Emotion))
		if !entry.Valid() {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("entry %d: %v", i+1, domain.ErrCorpusEntryMalformed))
			s.logger.Warn("corpus_entry_skipped", "position", i+1, "entry_id", entry.ID, "error", domain.ErrCorpusEntryMalformed)
			continue
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.Embedding = s.embed(ctx, entry.Question)
		accepted = append(accepted, entry)
	}

	if len(accepted) > 0 {
		if err := s.store.UpsertEntries(ctx, accepted); err != nil {
			return result, fmt.Errorf("persist corpus entries: %w", err)
		}
		s.publish(accepted)
	}
	result.Imported = len(accepted)

	s.logger.Info("corpus_imported", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func (s *CorpusService) Clear(ctx context.Context) (int, error) {
	removed, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear corpus: %w", err)
	}
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	s.logger.Info("corpus_cleared", "removed", removed)
	return removed, nil
}

func (s *CorpusService) embed(ctx context.Context, text string) domain.Embedding {
	if s.embedder == nil {
		return domain.Embedding{}
	}
	embedding := s.embedder.EmbedText(ctx, text)
	if embedding.Provider == domain.ProviderNone {
		return domain.Embedding{}
	}
	return embedding
}

// publish merges accepted entries into a fresh snapshot, replacing
// entries with the same id in place.
func (s *CorpusService) publish(accepted []domain.QAEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.QAEntry, len(s.entries), len(s.entries)+len(accepted))
	copy(next, s.entries)
	position := make(map[string]int, len(next))
	for i, entry := range next {
		position[entry.ID] = i
	}
	for _, entry := range accepted {
		if i, ok := position[entry.ID]; ok {
			next[i] = entry
			continue
		}
		position[entry.ID] = len(next)
		next = append(next, entry)
	}
	s.entries = next
}
