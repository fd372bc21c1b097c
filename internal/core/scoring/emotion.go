package scoring

import "github.com/kirillkom/counsel-assistant/internal/core/domain"

// EmotionMultiplier boosts entries tagged with the query's emotion, or with
// an emotion from the same broad group.
func EmotionMultiplier(cfg domain.RetrievalConfig, query, entry domain.Emotion) float64 {
	if query == domain.EmotionNone || entry == domain.EmotionNone {
		return 1
	}
	if query == entry {
		return cfg.SameEmotionBoost
	}
	qg, okQ := cfg.Tables.EmotionGroupOf(query)
	eg, okE := cfg.Tables.EmotionGroupOf(entry)
	if okQ && okE && qg == eg {
		return cfg.SameGroupBoost
	}
	return 1
}
