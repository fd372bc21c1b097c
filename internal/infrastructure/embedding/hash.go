// Package embedding provides the deterministic local embedder and the
// ordered fallback chain that wraps external embedding providers.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
	"github.com/kirillkom/counsel-assistant/internal/core/scoring"
)

const HashProviderName = domain.ProviderHash

type topicRange struct {
	keywords []string
	from, to int
	weight   float32
}

// HashEmbedder derives a vector from a rolling hash of the normalized text.
// The same text always yields the same vector; texts sharing a topical
// keyword share a biased range of dimensions.
type HashEmbedder struct {
	dim    int
	topics []topicRange
}

func NewHashEmbedder(dim int, topics []domain.TopicMarker) *HashEmbedder {
	h := &HashEmbedder{dim: dim}
	for _, t := range topics {
		from := int(t.From * float64(dim))
		to := int(t.To * float64(dim))
		if to > dim {
			to = dim
		}
		if from >= to {
			continue
		}
		w := t.Weight
		if w <= 0 || w > 1 {
			w = 0.5
		}
		keywords := make([]string, 0, len(t.Keywords))
		for _, k := range t.Keywords {
			if n := normalizeForHash(k); n != "" {
				keywords = append(keywords, n)
			}
		}
		h.topics = append(h.topics, topicRange{keywords: keywords, from: from, to: to, weight: float32(w)})
	}
	return h
}

func (h *HashEmbedder) Name() string {
	return HashProviderName
}

func (h *HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	normalized := normalizeForHash(text)
	if normalized == "" {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "hash embed", fmt.Errorf("empty text"))
	}

	var hash int32
	for _, r := range normalized {
		hash = hash*31 + int32(r)
	}

	out := make([]float32, h.dim)
	for i := range out {
		out[i] = float32((math.Sin(float64(hash)+float64(i)) + 1) / 2)
	}

	padded := " " + normalized + " "
	for _, topic := range h.topics {
		if !hasKeyword(padded, topic.keywords) {
			continue
		}
		for i := topic.from; i < topic.to; i++ {
			out[i] = out[i]*(1-topic.weight) + topic.weight
		}
	}
	return out, nil
}

func normalizeForHash(text string) string {
	return scoring.StripPunctuation(strings.ToLower(text))
}

func hasKeyword(padded string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(padded, " "+k+" ") {
			return true
		}
	}
	return false
}
