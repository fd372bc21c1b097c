// Package scoring holds the pure, deterministic scoring functions used by
// retrieval: text normalization, cosine similarity, the heuristic text
// scorer, lexical relevance, confidence classification, duplicate detection
// and the safety clamp. Nothing here performs I/O.
package scoring

import (
	"strings"
	"unicode"
)

var suffixContractions = []struct {
	suffix string
	expand string
}{
	{"n't", " not"},
	{"'re", " are"},
	{"'ve", " have"},
	{"'ll", " will"},
	{"'m", " am"},
	{"'d", " would"},
}

// Normalizer lowercases, expands contractions and strips punctuation.
type Normalizer struct {
	contractions map[string]string
}

func NewNormalizer(contractions map[string]string) *Normalizer {
	m := make(map[string]string, len(contractions))
	for k, v := range contractions {
		m[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	return &Normalizer{contractions: m}
}

func (n *Normalizer) Normalize(text string) string {
	text = strings.ToLower(text)
	text = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(text)

	fields := strings.Fields(text)
	for i, field := range fields {
		fields[i] = n.expand(field)
	}
	return StripPunctuation(strings.Join(fields, " "))
}

// Tokens returns the normalized words of text.
func (n *Normalizer) Tokens(text string) []string {
	return strings.Fields(n.Normalize(text))
}

func (n *Normalizer) expand(field string) string {
	core := strings.TrimFunc(field, func(r rune) bool {
		return r != '\'' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if !strings.Contains(core, "'") {
		return field
	}
	if v, ok := n.contractions[core]; ok {
		return strings.Replace(field, core, v, 1)
	}
	for _, sc := range suffixContractions {
		if strings.HasSuffix(core, sc.suffix) && len(core) > len(sc.suffix) {
			return strings.Replace(field, core, strings.TrimSuffix(core, sc.suffix)+sc.expand, 1)
		}
	}
	return field
}

// StripPunctuation keeps letters and digits, turns everything else into
// single spaces and trims the result.
func StripPunctuation(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// containsPhrase matches whole words only; padded must be " text ".
func containsPhrase(padded, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(padded, " "+phrase+" ")
}

func pad(normalized string) string {
	return " " + normalized + " "
}

func normalizeList(n *Normalizer, list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if v := n.Normalize(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}
