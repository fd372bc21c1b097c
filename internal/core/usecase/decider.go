package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/ports"
	"github.com/kirillkom/counsel-assistant/internal/core/scoring"
)

// CorpusSource hands out the current read-only corpus snapshot.
type CorpusSource interface {
	Snapshot() []domain.QAEntry
}

// ResponseModeDecider chooses between a verbatim corpus answer and a
// generative answer. It never fails: every retrieval problem degrades to
// generative mode with whatever context was gathered.
type ResponseModeDecider struct {
	cfg        domain.RetrievalConfig
	embedder   ports.TextEmbedder
	corpus     CorpusSource
	chunks     ports.VectorIndex
	matcher    *QAMatcher
	classifier *scoring.ConfidenceClassifier
	duplicates *scoring.DuplicateDetector
	lexical    *scoring.LexicalScorer
	observer   ports.DecisionObserver
	logger     *slog.Logger
}

type DeciderOptions struct {
	// Chunks is optional; without it only the Q&A corpus is consulted.
	Chunks   ports.VectorIndex
	Observer ports.DecisionObserver
	Logger   *slog.Logger
}

func NewResponseModeDecider(
	cfg domain.RetrievalConfig,
	embedder ports.TextEmbedder,
	corpus CorpusSource,
	options DeciderOptions,
) *ResponseModeDecider {
	cfg = cfg.Normalize()
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	matcher := NewQAMatcher(cfg, logger)
	return &ResponseModeDecider{
		cfg:        cfg,
		embedder:   embedder,
		corpus:     corpus,
		chunks:     options.Chunks,
		matcher:    matcher,
		classifier: scoring.NewConfidenceClassifier(cfg),
		duplicates: scoring.NewDuplicateDetector(matcher.normalizer, cfg),
		lexical:    scoring.NewLexicalScorer(matcher.normalizer, cfg.Tables.Stopwords),
		observer:   options.Observer,
		logger:     logger,
	}
}

func (d *ResponseModeDecider) Decide(ctx context.Context, input domain.DecisionInput) domain.Decision {
	started := time.Now()
	retrievalCtx, cancel := context.WithTimeout(ctx, d.cfg.RetrievalTimeout)
	defer cancel()

	embedding := d.embedder.EmbedText(retrievalCtx, input.Query)
	best := d.matcher.FindBestMatch(input.Query, embedding, d.corpus.Snapshot(), input.Emotion)
	chunkCandidates := d.searchChunks(retrievalCtx, input.Query, embedding)

	recent := domain.UserTexts(input.History, d.cfg.Duplicate.Window)
	duplicate := d.duplicates.IsDuplicate(input.Query, recent)

	decision := domain.Decision{
		Best:            best,
		TurnCount:       max(input.PriorUserTurns, len(domain.UserTexts(input.History, 0))) + 1,
		EmbeddingSource: embedding.Provider,
	}
	if best != nil {
		decision.Context = append(decision.Context, *best)
	}
	decision.Context = append(decision.Context, chunkCandidates...)
	if best == nil && len(chunkCandidates) > 0 {
		top := chunkCandidates[0]
		decision.Best = &top
	}

	if errors.Is(retrievalCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		decision.Mode = domain.ModeGenerative
		decision.Reason = domain.ReasonRetrievalTimeout
	} else {
		decision.Mode, decision.Reason = chooseMode(best, duplicate, d.cfg.ConfidenceThreshold)
	}
	decision.DuplicateForced = duplicate && decision.Reason == domain.ReasonDuplicate
	if decision.Mode == domain.ModeDocument {
		decision.Match = best
		decision.Citation = best.Tier == domain.TierExact || best.Tier == domain.TierHigh
		decision.Cacheable = best.Tier == domain.TierExact
	}

	elapsed := time.Since(started).Seconds()
	d.logDecision(decision, elapsed)
	if d.observer != nil {
		d.observer.ObserveDecision(decision, elapsed)
	}
	return decision
}

// MatchQuestion returns the best corpus candidate for query without
// choosing a response mode. It returns nil when nothing matches.
func (d *ResponseModeDecider) MatchQuestion(ctx context.Context, query string, emotion domain.Emotion) *domain.MatchCandidate {
	retrievalCtx, cancel := context.WithTimeout(ctx, d.cfg.RetrievalTimeout)
	defer cancel()

	embedding := d.embedder.EmbedText(retrievalCtx, query)
	return d.matcher.FindBestMatch(query, embedding, d.corpus.Snapshot(), emotion)
}

// chooseMode applies the decision rule on the classified percentage.
// Only Q&A candidates carry a verbatim answer, so only they may yield
// document mode.
func chooseMode(best *domain.MatchCandidate, duplicate bool, threshold float64) (domain.ResponseMode, domain.DecisionReason) {
	if best == nil {
		return domain.ModeGenerative, domain.ReasonNoCandidate
	}
	if _, ok := best.Answer(); !ok {
		return domain.ModeGenerative, domain.ReasonNoCandidate
	}
	if best.Percentage < threshold {
		return domain.ModeGenerative, domain.ReasonLowConfidence
	}
	if duplicate {
		return domain.ModeGenerative, domain.ReasonDuplicate
	}
	return domain.ModeDocument, domain.ReasonConfidentMatch
}

// searchChunks runs a vector search when the query vector comes from a
// semantic provider, and a lexical evidence scan otherwise.
func (d *ResponseModeDecider) searchChunks(ctx context.Context, query string, embedding domain.Embedding) []domain.MatchCandidate {
	if d.chunks == nil {
		return nil
	}

	var out []domain.MatchCandidate
	if embedding.Semantic() && len(embedding.Values) == d.cfg.Dimension {
		results, err := d.chunks.SearchSimilar(ctx, embedding.Values, d.cfg.ChunkTopK, d.cfg.ChunkThreshold)
		if err != nil {
			d.logger.Warn("chunk_search_failed", "mode", "vector", "error", err)
		}
		for _, r := range results {
			if r.Record.Metadata[domain.MetaProvider] != embedding.Provider {
				continue
			}
			out = append(out, d.chunkCandidate(r.Record, r.Score, domain.ScaleNormalized, domain.MatchDocumentChunk))
		}
	}
	if len(out) > 0 {
		return out
	}
	return d.evidenceScan(ctx, query)
}

func (d *ResponseModeDecider) evidenceScan(ctx context.Context, query string) []domain.MatchCandidate {
	records, err := d.chunks.SearchByMetadata(ctx, map[string]string{domain.MetaKind: domain.KindChunk}, d.cfg.EvidenceScanLimit)
	if err != nil {
		d.logger.Warn("chunk_search_failed", "mode", "lexical", "error", err)
		return nil
	}

	out := make([]domain.MatchCandidate, 0, d.cfg.ChunkTopK)
	for _, record := range records {
		relevance := d.lexical.Relevance(query, record.Text)
		if relevance <= 0 {
			continue
		}
		out = append(out, d.chunkCandidate(record, relevance, domain.ScaleLexical, domain.MatchEvidenceChunk))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > d.cfg.ChunkTopK {
		out = out[:d.cfg.ChunkTopK]
	}
	return out
}

func (d *ResponseModeDecider) chunkCandidate(record domain.VectorRecord, score float64, scale domain.ScoreScale, matchType domain.MatchType) domain.MatchCandidate {
	index, _ := strconv.Atoi(record.Metadata[domain.MetaChunkIndex])
	documentID := record.Metadata[domain.MetaDocumentID]
	filename := record.Metadata[domain.MetaFilename]

	var detail domain.MatchDetail
	if matchType == domain.MatchEvidenceChunk {
		detail = domain.EvidenceChunkDetail{DocumentID: documentID, ChunkIndex: index, Filename: filename, Text: record.Text}
	} else {
		detail = domain.DocumentChunkDetail{DocumentID: documentID, ChunkIndex: index, Filename: filename, Text: record.Text}
	}
	candidate := domain.MatchCandidate{
		SourceID: record.ID,
		Score:    score,
		Scale:    scale,
		Type:     matchType,
		Detail:   detail,
	}
	d.classifier.Apply(&candidate)
	return candidate
}

func (d *ResponseModeDecider) logDecision(decision domain.Decision, elapsed float64) {
	attrs := []any{
		"mode", decision.Mode,
		"reason", decision.Reason,
		"embedding_source", decision.EmbeddingSource,
		"context_size", len(decision.Context),
		"turn_count", decision.TurnCount,
		"duration_ms", elapsed * 1000,
	}
	if decision.Best != nil {
		attrs = append(attrs,
			"match_type", decision.Best.Type,
			"tier", decision.Best.Tier,
			"percentage", decision.Best.Percentage,
		)
	}
	d.logger.Info("retrieval_decision", attrs...)
}
