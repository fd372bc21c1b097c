package domain

// RelatedGroup is one adjacency edge between meaning groups.
type RelatedGroup struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// PhraseGroup is a named set of phrases sharing one meaning.
type PhraseGroup struct {
	Name    string         `yaml:"name" json:"name"`
	Phrases []string       `yaml:"phrases" json:"phrases"`
	Related []RelatedGroup `yaml:"related,omitempty" json:"related,omitempty"`
}

// TopicMarker biases a fractional range of embedding dimensions when any
// keyword occurs in the text.
type TopicMarker struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	From     float64  `yaml:"from" json:"from"`
	To       float64  `yaml:"to" json:"to"`
	Weight   float64  `yaml:"weight" json:"weight"`
}

type StructuralWords struct {
	Negations    []string `yaml:"negations" json:"negations"`
	EmotionVerbs []string `yaml:"emotion_verbs" json:"emotion_verbs"`
	Quantifiers  []string `yaml:"quantifiers" json:"quantifiers"`
	Comparisons  []string `yaml:"comparisons" json:"comparisons"`
}

// SimilarityTables is the curated data the heuristic scorer, the safety
// clamp and the hash embedder interpret. Entries are policy, not code.
type SimilarityTables struct {
	Contractions  map[string]string    `yaml:"contractions" json:"contractions"`
	Stopwords     []string             `yaml:"stopwords" json:"stopwords"`
	Concepts      []PhraseGroup        `yaml:"concepts" json:"concepts"`
	Phrases       []PhraseGroup        `yaml:"phrases" json:"phrases"`
	Synonyms      [][]string           `yaml:"synonyms" json:"synonyms"`
	Structural    StructuralWords      `yaml:"structural" json:"structural"`
	EmotionGroups map[string][]Emotion `yaml:"emotion_groups" json:"emotion_groups"`
	SafetyMarkers []string             `yaml:"safety_markers" json:"safety_markers"`
	CrisisMarkers []string             `yaml:"crisis_markers" json:"crisis_markers"`
	Topics        []TopicMarker        `yaml:"topics" json:"topics"`
}

// EmotionGroupOf returns the broad group an emotion belongs to.
func (t *SimilarityTables) EmotionGroupOf(e Emotion) (string, bool) {
	if t == nil || e == EmotionNone {
		return "", false
	}
	for group, members := range t.EmotionGroups {
		for _, m := range members {
			if m == e {
				return group, true
			}
		}
	}
	return "", false
}
