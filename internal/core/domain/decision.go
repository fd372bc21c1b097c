package domain

type ResponseMode string

const (
	ModeDocument   ResponseMode = "document"
	ModeGenerative ResponseMode = "generative"
)

type DecisionReason string

const (
	ReasonConfidentMatch   DecisionReason = "confident_match"
	ReasonLowConfidence    DecisionReason = "low_confidence"
	ReasonDuplicate        DecisionReason = "duplicate"
	ReasonNoCandidate      DecisionReason = "no_candidate"
	ReasonRetrievalTimeout DecisionReason = "retrieval_timeout"
)

type DecisionInput struct {
	Query   string             `json:"query"`
	Emotion Emotion            `json:"emotion,omitempty"`
	History []ConversationTurn `json:"history,omitempty"`
	// PriorUserTurns is the persisted number of user turns before this
	// one. History is a bounded window and undercounts long conversations.
	PriorUserTurns int `json:"prior_user_turns,omitempty"`
}

// Decision is the outcome of one retrieval pass. Match is set only in
// document mode; Context carries every candidate found, however weak.
type Decision struct {
	Mode            ResponseMode     `json:"mode"`
	Reason          DecisionReason   `json:"reason"`
	Match           *MatchCandidate  `json:"match,omitempty"`
	Best            *MatchCandidate  `json:"best,omitempty"`
	Context         []MatchCandidate `json:"context,omitempty"`
	DuplicateForced bool             `json:"duplicate_forced"`
	Citation        bool             `json:"citation"`
	Cacheable       bool             `json:"cacheable"`
	TurnCount       int              `json:"turn_count"`
	EmbeddingSource string           `json:"embedding_source,omitempty"`
}

type ChatRequest struct {
	UserID         string  `json:"user_id"`
	ConversationID string  `json:"conversation_id,omitempty"`
	Message        string  `json:"message"`
	Emotion        Emotion `json:"emotion,omitempty"`
}

type ChatReply struct {
	ConversationID string         `json:"conversation_id"`
	Answer         string         `json:"answer"`
	Mode           ResponseMode   `json:"mode"`
	Reason         DecisionReason `json:"reason"`
	Tier           ConfidenceTier `json:"tier,omitempty"`
	Percentage     float64        `json:"percentage"`
	Source         string         `json:"source,omitempty"`
	Sources        []string       `json:"sources,omitempty"`
}
