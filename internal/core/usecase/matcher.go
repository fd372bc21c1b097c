package usecase

import (
	"log/slog"
	"math"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/scoring"
)

// QAMatcher scans the corpus for the entry closest to a query. It never
// thresholds: the best entry is returned however weak it is.
type QAMatcher struct {
	cfg        domain.RetrievalConfig
	normalizer *scoring.Normalizer
	heuristic  *scoring.HeuristicScorer
	safety     *scoring.SafetyPolicy
	classifier *scoring.ConfidenceClassifier
	logger     *slog.Logger
}

func NewQAMatcher(cfg domain.RetrievalConfig, logger *slog.Logger) *QAMatcher {
	cfg = cfg.Normalize()
	if logger == nil {
		logger = slog.Default()
	}
	heuristic := scoring.NewHeuristicScorer(cfg)
	return &QAMatcher{
		cfg:        cfg,
		normalizer: heuristic.Normalizer(),
		heuristic:  heuristic,
		safety:     scoring.NewSafetyPolicy(heuristic.Normalizer(), cfg),
		classifier: scoring.NewConfidenceClassifier(cfg),
		logger:     logger,
	}
}

// FindBestMatch returns nil only when the corpus holds no usable entry.
func (m *QAMatcher) FindBestMatch(
	query string,
	queryEmbedding domain.Embedding,
	corpus []domain.QAEntry,
	emotion domain.Emotion,
) *domain.MatchCandidate {
	normalizedQuery := m.normalizer.Normalize(query)

	var best *domain.MatchCandidate
	for _, entry := range corpus {
		if !entry.Valid() {
			m.logger.Warn("corpus_entry_skipped",
				"entry_id", entry.ID,
				"error", domain.ErrCorpusEntryMalformed,
			)
			continue
		}
		candidate := m.scoreEntry(query, normalizedQuery, queryEmbedding, entry, emotion)
		if best == nil || candidate.Score > best.Score {
			c := candidate
			best = &c
		}
	}
	if best != nil {
		m.classifier.Apply(best)
	}
	return best
}

func (m *QAMatcher) scoreEntry(
	query, normalizedQuery string,
	queryEmbedding domain.Embedding,
	entry domain.QAEntry,
	emotion domain.Emotion,
) domain.MatchCandidate {
	if normalizedQuery != "" && m.normalizer.Normalize(entry.Question) == normalizedQuery {
		return domain.MatchCandidate{
			SourceID: entry.ID,
			Score:    1,
			Scale:    domain.ScaleNormalized,
			Type:     domain.MatchExactQA,
			Detail: domain.ExactQADetail{
				EntryID:  entry.ID,
				Question: entry.Question,
				Answer:   entry.Answer,
				Emotion:  entry.Emotion,
				Category: entry.Category,
			},
		}
	}

	raw, method := m.rawScore(query, queryEmbedding, entry)
	multiplier := scoring.EmotionMultiplier(m.cfg, emotion, entry.Emotion)
	score := math.Min(raw*multiplier, 1)
	score, clamped := m.safety.Apply(query, entry.Question+" "+entry.Answer, score)

	return domain.MatchCandidate{
		SourceID: entry.ID,
		Score:    score,
		Scale:    domain.ScaleNormalized,
		Type:     domain.MatchSemanticQA,
		Detail: domain.SemanticQADetail{
			EntryID:           entry.ID,
			Question:          entry.Question,
			Answer:            entry.Answer,
			Emotion:           entry.Emotion,
			Category:          entry.Category,
			Method:            method,
			EmotionMultiplier: multiplier,
			SafetyClamped:     clamped,
		},
	}
}

func (m *QAMatcher) rawScore(query string, queryEmbedding domain.Embedding, entry domain.QAEntry) (float64, domain.ScoreMethod) {
	if queryEmbedding.Comparable(entry.Embedding) {
		sim, err := scoring.CosineSimilarity(queryEmbedding.Values, entry.Embedding.Values)
		if err == nil {
			return sim, domain.MethodEmbedding
		}
		m.logger.Warn("cosine_fallback_heuristic", "entry_id", entry.ID, "error", err)
	}
	return m.heuristic.Score(query, entry.Question), domain.MethodHeuristic
}
