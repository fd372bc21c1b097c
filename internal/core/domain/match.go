package domain

type ConfidenceTier string

const (
	TierExact         ConfidenceTier = "exact"
	TierHigh          ConfidenceTier = "high"
	TierMedium        ConfidenceTier = "medium"
	TierLow           ConfidenceTier = "low"
	TierBestAvailable ConfidenceTier = "best-available"
)

// ScoreScale tells the classifier which raw range a score comes from.
type ScoreScale int

const (
	// ScaleNormalized covers cosine and heuristic scores in [0,1].
	ScaleNormalized ScoreScale = iota
	// ScaleLexical covers unbounded term-relevance scores.
	ScaleLexical
)

type MatchType string

const (
	MatchExactQA       MatchType = "exact_qa"
	MatchSemanticQA    MatchType = "semantic_qa"
	MatchEvidenceChunk MatchType = "evidence_chunk"
	MatchDocumentChunk MatchType = "document_chunk"
)

type ScoreMethod string

const (
	MethodExact     ScoreMethod = "exact"
	MethodEmbedding ScoreMethod = "embedding"
	MethodHeuristic ScoreMethod = "heuristic"
	MethodLexical   ScoreMethod = "lexical"
)

// MatchDetail is the closed set of per-type match payloads.
type MatchDetail interface {
	Type() MatchType
}

type ExactQADetail struct {
	EntryID  string  `json:"entry_id"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Emotion  Emotion `json:"emotion,omitempty"`
	Category string  `json:"category,omitempty"`
}

func (ExactQADetail) Type() MatchType { return MatchExactQA }

type SemanticQADetail struct {
	EntryID           string      `json:"entry_id"`
	Question          string      `json:"question"`
	Answer            string      `json:"answer"`
	Emotion           Emotion     `json:"emotion,omitempty"`
	Category          string      `json:"category,omitempty"`
	Method            ScoreMethod `json:"method"`
	EmotionMultiplier float64     `json:"emotion_multiplier"`
	SafetyClamped     bool        `json:"safety_clamped,omitempty"`
}

func (SemanticQADetail) Type() MatchType { return MatchSemanticQA }

type EvidenceChunkDetail struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename,omitempty"`
	Text       string `json:"text"`
}

func (EvidenceChunkDetail) Type() MatchType { return MatchEvidenceChunk }

type DocumentChunkDetail struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Filename   string `json:"filename,omitempty"`
	Text       string `json:"text"`
}

func (DocumentChunkDetail) Type() MatchType { return MatchDocumentChunk }

// MatchCandidate is request scoped and never persisted.
type MatchCandidate struct {
	SourceID   string         `json:"source_id"`
	Score      float64        `json:"score"`
	Scale      ScoreScale     `json:"-"`
	Tier       ConfidenceTier `json:"tier,omitempty"`
	Percentage float64        `json:"percentage"`
	Type       MatchType      `json:"match_type"`
	Detail     MatchDetail    `json:"detail"`
}

// Answer returns the verbatim answer for Q&A matches.
func (c MatchCandidate) Answer() (string, bool) {
	switch d := c.Detail.(type) {
	case ExactQADetail:
		return d.Answer, true
	case SemanticQADetail:
		return d.Answer, true
	default:
		return "", false
	}
}

// ContextText returns the text a generative call should see for this candidate.
func (c MatchCandidate) ContextText() string {
	switch d := c.Detail.(type) {
	case ExactQADetail:
		return "Q: " + d.Question + "\nA: " + d.Answer
	case SemanticQADetail:
		return "Q: " + d.Question + "\nA: " + d.Answer
	case EvidenceChunkDetail:
		return d.Text
	case DocumentChunkDetail:
		return d.Text
	default:
		return ""
	}
}
