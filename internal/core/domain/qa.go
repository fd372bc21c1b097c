package domain

import (
	"strings"
	"time"
)

// Emotion is the affect tag attached to corpus entries and detected on queries.
type Emotion string

const (
	EmotionNone     Emotion = ""
	EmotionNeutral  Emotion = "neutral"
	EmotionHappy    Emotion = "happy"
	EmotionGrateful Emotion = "grateful"
	EmotionHopeful  Emotion = "hopeful"
	EmotionSad      Emotion = "sad"
	EmotionAngry    Emotion = "angry"
	EmotionFear     Emotion = "fear"
	EmotionAnxious  Emotion = "anxious"
	EmotionLonely   Emotion = "lonely"
	EmotionGuilty   Emotion = "guilty"
)

func ParseEmotion(raw string) Emotion {
	return Emotion(strings.ToLower(strings.TrimSpace(raw)))
}

// Embedding is a vector tagged with the provider that produced it. Vectors
// from different providers live in different spaces and are never compared.
type Embedding struct {
	Values   []float32 `json:"values,omitempty"`
	Provider string    `json:"provider,omitempty"`
}

const (
	ProviderNone = "none"
	// ProviderHash tags the deterministic local fallback. Its vectors are
	// reproducible but carry no meaning: all components are positive, so
	// unrelated texts still land at a cosine of 0.5 or more.
	ProviderHash = "hash-v1"
)

func (e Embedding) Empty() bool {
	return len(e.Values) == 0
}

// Semantic reports whether the vector came from a real embedding model,
// so that its cosine similarity says something about meaning.
func (e Embedding) Semantic() bool {
	if e.Empty() {
		return false
	}
	switch e.Provider {
	case "", ProviderNone, ProviderHash:
		return false
	}
	return true
}

// Comparable reports whether two embeddings come from the same semantic
// provider and share a length.
func (e Embedding) Comparable(other Embedding) bool {
	if !e.Semantic() || !other.Semantic() {
		return false
	}
	return e.Provider == other.Provider && len(e.Values) == len(other.Values)
}

type QAEntry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Emotion   Emotion   `json:"emotion,omitempty"`
	Category  string    `json:"category,omitempty"`
	Embedding Embedding `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the entry carries both question and answer text.
func (e QAEntry) Valid() bool {
	return strings.TrimSpace(e.Question) != "" && strings.TrimSpace(e.Answer) != ""
}

type CorpusImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}
