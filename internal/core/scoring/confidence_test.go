package scoring

import (
	"math"
	"testing"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

func TestClassifyNormalizedScale(t *testing.T) {
	c := NewConfidenceClassifier(testConfig(t))
	cases := []struct {
		raw  float64
		tier domain.ConfidenceTier
		pct  float64
	}{
		{1.0, domain.TierExact, 100},
		{1.7, domain.TierExact, 100},
		{0.95, domain.TierExact, 97.5},
		{0.9, domain.TierExact, 95},
		{0.7, domain.TierHigh, 80},
		{0.5, domain.TierMedium, 60},
		{0.45, domain.TierLow, 55},
		{0.2, domain.TierBestAvailable, 25},
		{-0.3, domain.TierBestAvailable, 0},
		{math.NaN(), domain.TierBestAvailable, 0},
	}
	for _, tc := range cases {
		tier, pct := c.Classify(tc.raw, domain.ScaleNormalized)
		if tier != tc.tier || math.Abs(pct-tc.pct) > 1e-9 {
			t.Errorf("Classify(%v) = (%s, %v), want (%s, %v)", tc.raw, tier, pct, tc.tier, tc.pct)
		}
	}
}

func TestClassifyLexicalScale(t *testing.T) {
	c := NewConfidenceClassifier(testConfig(t))
	cases := []struct {
		raw  float64
		tier domain.ConfidenceTier
		pct  float64
	}{
		{0.5, domain.TierBestAvailable, 25},
		{1, domain.TierLow, 50},
		{3, domain.TierMedium, 65},
		{5, domain.TierHigh, 80},
		{10, domain.TierExact, 95},
		{20, domain.TierExact, 97.5},
	}
	for _, tc := range cases {
		tier, pct := c.Classify(tc.raw, domain.ScaleLexical)
		if tier != tc.tier || math.Abs(pct-tc.pct) > 1e-9 {
			t.Errorf("Classify(%v, lexical) = (%s, %v), want (%s, %v)", tc.raw, tier, pct, tc.tier, tc.pct)
		}
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	c := NewConfidenceClassifier(testConfig(t))
	rank := map[domain.ConfidenceTier]int{
		domain.TierBestAvailable: 0,
		domain.TierLow:           1,
		domain.TierMedium:        2,
		domain.TierHigh:          3,
		domain.TierExact:         4,
	}
	for _, scale := range []domain.ScoreScale{domain.ScaleNormalized, domain.ScaleLexical} {
		prevTier, prevPct := -1, -1.0
		for raw := 0.0; raw <= 30; raw += 0.01 {
			tier, pct := c.Classify(raw, scale)
			if rank[tier] < prevTier || pct < prevPct {
				t.Fatalf("scale %d not monotonic at %v: (%s, %v) after (%d, %v)", scale, raw, tier, pct, prevTier, prevPct)
			}
			if pct < 0 || pct > 100 {
				t.Fatalf("percentage out of range at %v: %v", raw, pct)
			}
			prevTier, prevPct = rank[tier], pct
		}
	}
}

func TestApplyFillsCandidate(t *testing.T) {
	c := NewConfidenceClassifier(testConfig(t))
	cand := &domain.MatchCandidate{Score: 0.7, Scale: domain.ScaleNormalized}
	c.Apply(cand)
	if cand.Tier != domain.TierHigh || cand.Percentage != 80 {
		t.Fatalf("unexpected candidate %+v", cand)
	}
}
