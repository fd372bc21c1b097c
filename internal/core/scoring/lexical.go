package scoring

import "math"

const lexicalK = 1.2

// LexicalScorer computes an unbounded BM25-style relevance of a text for a
// query: each distinct query term present contributes tf(k+1)/(tf+k).
type LexicalScorer struct {
	normalizer *Normalizer
	stopwords  map[string]struct{}
}

func NewLexicalScorer(normalizer *Normalizer, stopwords []string) *LexicalScorer {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range normalizeList(normalizer, stopwords) {
		set[w] = struct{}{}
	}
	return &LexicalScorer{normalizer: normalizer, stopwords: set}
}

func (s *LexicalScorer) Relevance(query, text string) float64 {
	terms := make(map[string]struct{})
	for _, t := range s.normalizer.Tokens(query) {
		if _, stop := s.stopwords[t]; !stop {
			terms[t] = struct{}{}
		}
	}
	if len(terms) == 0 {
		return 0
	}
	tf := make(map[string]float64, len(terms))
	for _, t := range s.normalizer.Tokens(text) {
		if _, ok := terms[t]; ok {
			tf[t]++
		}
	}
	score := 0.0
	for _, f := range tf {
		w := (f * (lexicalK + 1)) / (f + lexicalK)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		score += w
	}
	return score
}
