package scoring

import (
	"math"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// ConfidenceClassifier maps a raw score onto a tier and a percentage.
// Both mappings are monotonic in the raw score.
type ConfidenceClassifier struct {
	tiers domain.TierBoundaries
	pct   domain.TierPercentages
}

func NewConfidenceClassifier(cfg domain.RetrievalConfig) *ConfidenceClassifier {
	cfg = cfg.Normalize()
	return &ConfidenceClassifier{tiers: cfg.Tiers, pct: cfg.Percentages}
}

func (c *ConfidenceClassifier) Classify(raw float64, scale domain.ScoreScale) (domain.ConfidenceTier, float64) {
	if math.IsNaN(raw) || raw < 0 {
		raw = 0
	}
	if scale == domain.ScaleLexical {
		pct := lexicalPercentage(raw)
		return c.tierForPercentage(pct), pct
	}
	return c.classifyNormalized(math.Min(raw, 1))
}

// Apply fills tier and percentage on a candidate in place.
func (c *ConfidenceClassifier) Apply(candidate *domain.MatchCandidate) {
	candidate.Tier, candidate.Percentage = c.Classify(candidate.Score, candidate.Scale)
}

func (c *ConfidenceClassifier) classifyNormalized(raw float64) (domain.ConfidenceTier, float64) {
	t, p := c.tiers, c.pct
	switch {
	case raw >= t.Exact:
		if t.Exact >= 1 {
			return domain.TierExact, 100
		}
		return domain.TierExact, lerp(raw, t.Exact, 1, p.Exact, 100)
	case raw >= t.High:
		return domain.TierHigh, lerp(raw, t.High, t.Exact, p.High, p.Exact)
	case raw >= t.Medium:
		return domain.TierMedium, lerp(raw, t.Medium, t.High, p.Medium, p.High)
	case raw >= t.Low:
		return domain.TierLow, lerp(raw, t.Low, t.Medium, p.Low, p.Medium)
	default:
		return domain.TierBestAvailable, lerp(raw, 0, t.Low, 0, p.Low)
	}
}

func (c *ConfidenceClassifier) tierForPercentage(pct float64) domain.ConfidenceTier {
	switch {
	case pct >= c.pct.Exact:
		return domain.TierExact
	case pct >= c.pct.High:
		return domain.TierHigh
	case pct >= c.pct.Medium:
		return domain.TierMedium
	case pct >= c.pct.Low:
		return domain.TierLow
	default:
		return domain.TierBestAvailable
	}
}

// lexicalPercentage reconciles unbounded relevance scores with the
// percentage scale: [0,1) -> [0,50), [1,5) -> [50,80), [5,10) -> [80,95),
// >=10 -> [95,100).
func lexicalPercentage(raw float64) float64 {
	switch {
	case raw < 1:
		return lerp(raw, 0, 1, 0, 50)
	case raw < 5:
		return lerp(raw, 1, 5, 50, 80)
	case raw < 10:
		return lerp(raw, 5, 10, 80, 95)
	default:
		return 95 + 5*(1-10/raw)
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	if x1 <= x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}
