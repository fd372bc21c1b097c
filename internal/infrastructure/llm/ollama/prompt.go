package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/counsel-assistant/internal/core/domain"
)

const maxContextChars = 1200

func buildAnswerPrompt(question string, candidates []domain.MatchCandidate, varyPhrasing bool) string {
	var contextBuilder strings.Builder
	for idx, candidate := range candidates {
		text := candidate.ContextText()
		if text == "" {
			continue
		}
		if len(text) > maxContextChars {
			text = text[:maxContextChars]
		}
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] type=%s tier=%s confidence=%.1f%%\n%s\n\n",
			idx+1,
			candidate.Type,
			candidate.Tier,
			candidate.Percentage,
			text,
		))
	}

	instructions := `Answer the user with care and compassion.
Prefer the reference material below when it is relevant; do not invent citations.
If the user mentions harming themselves, encourage them to reach out to a crisis hotline or a trusted person.`
	if varyPhrasing {
		instructions += "\nThe user already asked this. Answer again with different wording and, where possible, a new angle."
	}

	reference := contextBuilder.String()
	if reference == "" {
		reference = "(no reference material found)\n"
	}

	return fmt.Sprintf(`%s

Question:
%s

Reference material:
%s`, instructions, question, reference)
}
