package scoring

import "github.com/kirillkom/counsel-assistant/internal/core/domain"

// SafetyPolicy clamps suspiciously high scores for crisis queries whose
// candidate text does not address the crisis. It runs after all other
// adjustments and is never folded into the weighted average.
type SafetyPolicy struct {
	normalizer       *Normalizer
	queryMarkers     []string
	candidateMarkers []string
	trigger          float64
	clamp            float64
}

func NewSafetyPolicy(normalizer *Normalizer, cfg domain.RetrievalConfig) *SafetyPolicy {
	cfg = cfg.Normalize()
	query := normalizeList(normalizer, cfg.Tables.SafetyMarkers)
	candidate := append(normalizeList(normalizer, cfg.Tables.CrisisMarkers), query...)
	return &SafetyPolicy{
		normalizer:       normalizer,
		queryMarkers:     query,
		candidateMarkers: candidate,
		trigger:          cfg.Safety.TriggerScore,
		clamp:            cfg.Safety.ClampScore,
	}
}

// IsCrisis reports whether the query carries any safety marker.
func (p *SafetyPolicy) IsCrisis(query string) bool {
	return containsAny(pad(p.normalizer.Normalize(query)), p.queryMarkers)
}

// Apply returns the possibly clamped score and whether the clamp fired.
func (p *SafetyPolicy) Apply(query, candidateText string, score float64) (float64, bool) {
	if score <= p.trigger || !p.IsCrisis(query) {
		return score, false
	}
	if containsAny(pad(p.normalizer.Normalize(candidateText)), p.candidateMarkers) {
		return score, false
	}
	if score > p.clamp {
		return p.clamp, true
	}
	return score, true
}
