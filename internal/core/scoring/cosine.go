package scoring

import (
	"math"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// CosineSimilarity returns the cosine of a and b clamped to [0, 1].
// Vectors of unequal length are an error, never a zero score.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionError(len(a), len(b))
	}
	return clampedCosine(a, b), nil
}

func clampedCosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return Clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Clamp01 floors at 0 and caps at 1; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
