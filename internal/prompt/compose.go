package prompt

import (
	"fmt"
	"strings"

	"github.com/ppiankov/factsift/internal/i18n"
	"github.com/ppiankov/factsift/internal/model"
)

// Input is everything Compose needs for one request
type Input struct {
	Policy Policy

	// Language is the display language code of the verdict
	Language string

	// Feedback is prior feedback for the same query, most recent first
	Feedback []model.FeedbackRecord

	ReferenceText string
	DatabaseFact  string
}

// Compose renders the system prompt. The policy instructions always come
// first; each context section is appended only when it has content. The
// output depends only on in.
func Compose(in Input) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(in.Policy.Instructions))

	if in.Language != "" {
		fmt.Fprintf(&b, "\n\nWrite your entire analysis in %s as one consistent summary, without a heading for each criterion.",
			i18n.EnglishName(in.Language))
	}

	for _, section := range in.Policy.Sections() {
		block := render(section, in)
		if block == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(block)
	}

	return b.String()
}

func render(section Section, in Input) string {
	switch section {
	case SectionDatabaseFact:
		fact := strings.TrimSpace(in.DatabaseFact)
		if fact == "" {
			return ""
		}
		if in.Policy.Priority == PriorityBalanced {
			return "Supporting Context:\n" + fact +
				"\n\nWeigh this context alongside your own assessment."
		}
		return "Verified Reference Information:\n" + fact +
			"\n\nTreat the information above as authoritative. Where it conflicts with your general knowledge, follow it. " +
			"Do not mention or cite where this information came from; present your analysis as your own natural reasoning."

	case SectionFeedback:
		if len(in.Feedback) == 0 {
			return ""
		}
		lines := make([]string, len(in.Feedback))
		for i, fb := range in.Feedback {
			lines[i] = FeedbackLine(fb)
		}
		return "Past User Feedback:\n" + strings.Join(lines, "\n") +
			"\n\nUse this feedback to refine your analysis where it is relevant."

	case SectionReference:
		text := strings.TrimSpace(in.ReferenceText)
		if text == "" {
			return ""
		}
		return "Supplementary Source:\n" + text +
			"\n\nThis excerpt may be incomplete or unrelated; use it only as supplementary evidence."
	}
	return ""
}

// FeedbackLine renders one feedback record
func FeedbackLine(fb model.FeedbackRecord) string {
	return fmt.Sprintf("Query: %s, Rating: %d, Comment: %s", fb.Query, fb.Rating, fb.Comment)
}
