package domain

import "time"

type TierBoundaries struct {
	Exact  float64 `json:"exact"`
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// TierPercentages are the percentage values at which each tier starts.
type TierPercentages struct {
	Exact  float64 `json:"exact"`
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

type ScoreWeights struct {
	SemanticCore float64 `json:"semantic_core"`
	Phrase       float64 `json:"phrase"`
	WordMatch    float64 `json:"word_match"`
	Structural   float64 `json:"structural"`
}

func (w ScoreWeights) sum() float64 {
	return w.SemanticCore + w.Phrase + w.WordMatch + w.Structural
}

type DuplicateSettings struct {
	Window            int     `json:"window"`
	ContainmentRatio  float64 `json:"containment_ratio"`
	JaccardThreshold  float64 `json:"jaccard_threshold"`
	MinJaccardLength  int     `json:"min_jaccard_length"`
	MinJaccardWordLen int     `json:"min_jaccard_word_len"`
}

type SafetySettings struct {
	TriggerScore float64 `json:"trigger_score"`
	ClampScore   float64 `json:"clamp_score"`
}

// RetrievalConfig is built once at startup and shared read-only by every
// retrieval component.
type RetrievalConfig struct {
	Dimension           int               `json:"dimension"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	Tiers               TierBoundaries    `json:"tiers"`
	Percentages         TierPercentages   `json:"percentages"`
	Weights             ScoreWeights      `json:"weights"`
	RelatedCredit       float64           `json:"related_credit"`
	SameEmotionBoost    float64           `json:"same_emotion_boost"`
	SameGroupBoost      float64           `json:"same_group_boost"`
	Safety              SafetySettings    `json:"safety"`
	Duplicate           DuplicateSettings `json:"duplicate"`
	EmbedTimeout        time.Duration     `json:"embed_timeout"`
	RetrievalTimeout    time.Duration     `json:"retrieval_timeout"`
	ChunkTopK           int               `json:"chunk_top_k"`
	ChunkThreshold      float64           `json:"chunk_threshold"`
	EvidenceScanLimit   int               `json:"evidence_scan_limit"`
	Tables              *SimilarityTables `json:"-"`
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		Dimension:           1024,
		ConfidenceThreshold: 80,
		Tiers:               TierBoundaries{Exact: 0.9, High: 0.7, Medium: 0.5, Low: 0.4},
		Percentages:         TierPercentages{Exact: 95, High: 80, Medium: 60, Low: 50},
		Weights:             ScoreWeights{SemanticCore: 0.4, Phrase: 0.3, WordMatch: 0.2, Structural: 0.1},
		RelatedCredit:       0.7,
		SameEmotionBoost:    1.2,
		SameGroupBoost:      1.1,
		Safety:              SafetySettings{TriggerScore: 0.95, ClampScore: 0.1},
		Duplicate: DuplicateSettings{
			Window:            10,
			ContainmentRatio:  0.8,
			JaccardThreshold:  0.85,
			MinJaccardLength:  30,
			MinJaccardWordLen: 3,
		},
		EmbedTimeout:      800 * time.Millisecond,
		RetrievalTimeout:  3 * time.Second,
		ChunkTopK:         5,
		ChunkThreshold:    0.3,
		EvidenceScanLimit: 500,
		Tables:            &SimilarityTables{},
	}
}

// Normalize fills zero or invalid values with defaults and rescales the
// sub-score weights so they sum to one.
func (c RetrievalConfig) Normalize() RetrievalConfig {
	out := c
	def := DefaultRetrievalConfig()

	if out.Dimension <= 0 {
		out.Dimension = def.Dimension
	}
	if out.ConfidenceThreshold <= 0 || out.ConfidenceThreshold > 100 {
		out.ConfidenceThreshold = def.ConfidenceThreshold
	}
	t := out.Tiers
	if t.Exact <= 0 || t.High <= 0 || t.Medium <= 0 || t.Low <= 0 ||
		!(t.Exact > t.High && t.High > t.Medium && t.Medium > t.Low) {
		out.Tiers = def.Tiers
	}
	p := out.Percentages
	if p.Exact <= 0 || !(p.Exact > p.High && p.High > p.Medium && p.Medium > p.Low && p.Low > 0) || p.Exact > 100 {
		out.Percentages = def.Percentages
	}
	if out.Weights.SemanticCore < 0 || out.Weights.Phrase < 0 || out.Weights.WordMatch < 0 || out.Weights.Structural < 0 ||
		out.Weights.sum() <= 0 {
		out.Weights = def.Weights
	}
	if s := out.Weights.sum(); s != 1 {
		out.Weights = ScoreWeights{
			SemanticCore: out.Weights.SemanticCore / s,
			Phrase:       out.Weights.Phrase / s,
			WordMatch:    out.Weights.WordMatch / s,
			Structural:   out.Weights.Structural / s,
		}
	}
	if out.RelatedCredit <= 0 || out.RelatedCredit > 1 {
		out.RelatedCredit = def.RelatedCredit
	}
	if out.SameEmotionBoost < 1 {
		out.SameEmotionBoost = def.SameEmotionBoost
	}
	if out.SameGroupBoost < 1 {
		out.SameGroupBoost = def.SameGroupBoost
	}
	if out.Safety.TriggerScore <= 0 || out.Safety.TriggerScore > 1 {
		out.Safety.TriggerScore = def.Safety.TriggerScore
	}
	if out.Safety.ClampScore < 0 || out.Safety.ClampScore >= out.Safety.TriggerScore {
		out.Safety.ClampScore = def.Safety.ClampScore
	}
	d := &out.Duplicate
	if d.Window <= 0 {
		d.Window = def.Duplicate.Window
	}
	if d.ContainmentRatio <= 0 || d.ContainmentRatio > 1 {
		d.ContainmentRatio = def.Duplicate.ContainmentRatio
	}
	if d.JaccardThreshold <= 0 || d.JaccardThreshold > 1 {
		d.JaccardThreshold = def.Duplicate.JaccardThreshold
	}
	if d.MinJaccardLength <= 0 {
		d.MinJaccardLength = def.Duplicate.MinJaccardLength
	}
	if d.MinJaccardWordLen <= 0 {
		d.MinJaccardWordLen = def.Duplicate.MinJaccardWordLen
	}
	if out.EmbedTimeout <= 0 {
		out.EmbedTimeout = def.EmbedTimeout
	}
	if out.RetrievalTimeout <= 0 {
		out.RetrievalTimeout = def.RetrievalTimeout
	}
	if out.ChunkTopK <= 0 {
		out.ChunkTopK = def.ChunkTopK
	}
	if out.ChunkThreshold < 0 || out.ChunkThreshold > 1 {
		out.ChunkThreshold = def.ChunkThreshold
	}
	if out.EvidenceScanLimit <= 0 {
		out.EvidenceScanLimit = def.EvidenceScanLimit
	}
	if out.Tables == nil {
		out.Tables = def.Tables
	}
	return out
}
