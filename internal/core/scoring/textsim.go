package scoring

import (
	"strings"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

const (
	synonymCredit   = 0.8
	substringCredit = 0.5
	minSubstringLen = 3
	structuralSlots = 7
)

// TextScorer scores the textual similarity of two strings in [0, 1].
type TextScorer interface {
	Score(a, b string) float64
}

// Breakdown exposes the weighted sub-scores of one comparison.
type Breakdown struct {
	SemanticCore float64 `json:"semantic_core"`
	Phrase       float64 `json:"phrase"`
	WordMatch    float64 `json:"word_match"`
	Structural   float64 `json:"structural"`
	Total        float64 `json:"total"`
}

// HeuristicScorer interprets SimilarityTables as a weighted multi-factor
// text similarity. It is safe for concurrent use once built.
type HeuristicScorer struct {
	normalizer *Normalizer
	weights    domain.ScoreWeights
	concepts   *groupIndex
	phrases    *groupIndex
	synonyms   map[string][]int
	stopwords  map[string]struct{}

	negations    []string
	emotionVerbs []string
	quantifiers  []string
	comparisons  []string
}

func NewHeuristicScorer(cfg domain.RetrievalConfig) *HeuristicScorer {
	cfg = cfg.Normalize()
	tables := cfg.Tables
	n := NewNormalizer(tables.Contractions)

	s := &HeuristicScorer{
		normalizer:   n,
		weights:      cfg.Weights,
		concepts:     newGroupIndex(n, tables.Concepts, cfg.RelatedCredit),
		phrases:      newGroupIndex(n, tables.Phrases, 1.0),
		synonyms:     make(map[string][]int),
		stopwords:    make(map[string]struct{}, len(tables.Stopwords)),
		negations:    normalizeList(n, tables.Structural.Negations),
		emotionVerbs: normalizeList(n, tables.Structural.EmotionVerbs),
		quantifiers:  normalizeList(n, tables.Structural.Quantifiers),
		comparisons:  normalizeList(n, tables.Structural.Comparisons),
	}
	for gid, group := range tables.Synonyms {
		for _, word := range normalizeList(n, group) {
			s.synonyms[word] = append(s.synonyms[word], gid)
		}
	}
	for _, w := range normalizeList(n, tables.Stopwords) {
		s.stopwords[w] = struct{}{}
	}
	return s
}

func (s *HeuristicScorer) Normalizer() *Normalizer {
	return s.normalizer
}

func (s *HeuristicScorer) Score(a, b string) float64 {
	return s.Explain(a, b).Total
}

// Explain computes the full breakdown; Total equals Score(a, b).
func (s *HeuristicScorer) Explain(a, b string) Breakdown {
	na := s.normalizer.Normalize(a)
	nb := s.normalizer.Normalize(b)
	if na == "" || nb == "" {
		return Breakdown{}
	}
	if na == nb {
		return Breakdown{SemanticCore: 1, Phrase: 1, WordMatch: 1, Structural: 1, Total: 1}
	}

	pa, pb := pad(na), pad(nb)
	out := Breakdown{
		SemanticCore: s.concepts.score(s.concepts.hits(pa), s.concepts.hits(pb)),
		Phrase:       s.phrases.score(s.phrases.hits(pa), s.phrases.hits(pb)),
		WordMatch:    s.wordMatch(strings.Fields(na), strings.Fields(nb)),
		Structural:   s.structural(a, b, na, nb),
	}
	total := s.weights.SemanticCore*out.SemanticCore +
		s.weights.Phrase*out.Phrase +
		s.weights.WordMatch*out.WordMatch +
		s.weights.Structural*out.Structural
	out.Total = Clamp01(total)
	return out
}

// wordMatch averages the best per-token credit in both directions so the
// score is symmetric.
func (s *HeuristicScorer) wordMatch(a, b []string) float64 {
	ta := s.contentTokens(a)
	tb := s.contentTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	return (s.directional(ta, tb) + s.directional(tb, ta)) / 2
}

func (s *HeuristicScorer) directional(from, to []string) float64 {
	total := 0.0
	for _, x := range from {
		best := 0.0
		for _, y := range to {
			if c := s.pairCredit(x, y); c > best {
				best = c
				if best == 1 {
					break
				}
			}
		}
		total += best
	}
	return total / float64(len(from))
}

func (s *HeuristicScorer) pairCredit(x, y string) float64 {
	if x == y {
		return 1
	}
	for _, gx := range s.synonyms[x] {
		for _, gy := range s.synonyms[y] {
			if gx == gy {
				return synonymCredit
			}
		}
	}
	if len(x) >= minSubstringLen && len(y) >= minSubstringLen &&
		(strings.Contains(x, y) || strings.Contains(y, x)) {
		return substringCredit
	}
	return 0
}

func (s *HeuristicScorer) contentTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := s.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

type structuralFeatures [6]bool

func (s *HeuristicScorer) features(raw, normalized string) structuralFeatures {
	padded := pad(normalized)
	return structuralFeatures{
		strings.HasPrefix(padded, " i "),
		strings.Contains(raw, "?"),
		containsAny(padded, s.negations),
		containsAny(padded, s.emotionVerbs),
		containsAny(padded, s.quantifiers),
		containsAny(padded, s.comparisons),
	}
}

func (s *HeuristicScorer) structural(rawA, rawB, na, nb string) float64 {
	fa := s.features(rawA, na)
	fb := s.features(rawB, nb)
	matches := 0.0
	for i := range fa {
		if fa[i] == fb[i] {
			matches++
		}
	}
	wa := float64(len(strings.Fields(na)))
	wb := float64(len(strings.Fields(nb)))
	longer := wa
	if wb > longer {
		longer = wb
	}
	lengthSim := 1.0
	if longer > 0 {
		diff := wa - wb
		if diff < 0 {
			diff = -diff
		}
		lengthSim = 1 - diff/longer
	}
	return (matches + lengthSim) / structuralSlots
}

func containsAny(padded string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(padded, p) {
			return true
		}
	}
	return false
}

// groupIndex is the generic interpreter over a phrase-group table.
type groupIndex struct {
	names   []string
	phrases [][]string
	related map[string]map[string]float64
}

func newGroupIndex(n *Normalizer, groups []domain.PhraseGroup, credit float64) *groupIndex {
	g := &groupIndex{
		names:   make([]string, 0, len(groups)),
		phrases: make([][]string, 0, len(groups)),
		related: make(map[string]map[string]float64),
	}
	link := func(a, b string, w float64) {
		if g.related[a] == nil {
			g.related[a] = make(map[string]float64)
		}
		if w > g.related[a][b] {
			g.related[a][b] = w
		}
	}
	for _, group := range groups {
		g.names = append(g.names, group.Name)
		g.phrases = append(g.phrases, normalizeList(n, group.Phrases))
		for _, rel := range group.Related {
			w := rel.Weight
			if w <= 0 {
				w = 1
			}
			w *= credit
			if w > 1 {
				w = 1
			}
			link(group.Name, rel.Name, w)
			link(rel.Name, group.Name, w)
		}
	}
	return g
}

func (g *groupIndex) hits(padded string) map[string]struct{} {
	out := make(map[string]struct{})
	for i, phrases := range g.phrases {
		if containsAny(padded, phrases) {
			out[g.names[i]] = struct{}{}
		}
	}
	return out
}

// score gives full credit for a shared group, otherwise the strongest
// adjacency weight between any pair of hit groups.
func (g *groupIndex) score(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	for name := range a {
		if _, ok := b[name]; ok {
			return 1
		}
	}
	best := 0.0
	for x := range a {
		for y := range b {
			if w := g.related[x][y]; w > best {
				best = w
			}
		}
	}
	return best
}
