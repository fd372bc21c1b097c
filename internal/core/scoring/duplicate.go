package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

// DuplicateDetector decides whether a message re-asks one of the recent
// user turns of the same conversation.
type DuplicateDetector struct {
	normalizer *Normalizer
	settings   domain.DuplicateSettings
}

func NewDuplicateDetector(normalizer *Normalizer, cfg domain.RetrievalConfig) *DuplicateDetector {
	cfg = cfg.Normalize()
	return &DuplicateDetector{normalizer: normalizer, settings: cfg.Duplicate}
}

// IsDuplicate checks the current message against the last Window entries
// of recent (oldest first) and returns true on the first hit.
func (d *DuplicateDetector) IsDuplicate(current string, recent []string) bool {
	cur := d.normalizer.Normalize(current)
	if cur == "" {
		return false
	}
	if len(recent) > d.settings.Window {
		recent = recent[len(recent)-d.settings.Window:]
	}
	for i := len(recent) - 1; i >= 0; i-- {
		if d.matches(cur, d.normalizer.Normalize(recent[i])) {
			return true
		}
	}
	return false
}

func (d *DuplicateDetector) matches(a, b string) bool {
	if b == "" {
		return false
	}
	if a == b {
		return true
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if (strings.Contains(a, b) || strings.Contains(b, a)) &&
		float64(shorter)/float64(longer) > d.settings.ContainmentRatio {
		return true
	}

	if la > d.settings.MinJaccardLength && lb > d.settings.MinJaccardLength {
		return jaccard(d.longWords(a), d.longWords(b)) > d.settings.JaccardThreshold
	}
	return false
}

func (d *DuplicateDetector) longWords(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) > d.settings.MinJaccardWordLen {
			out[w] = struct{}{}
		}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
