// Package narrative assembles the deterministic CFO prompt that couples
// signals and open questions for downstream LLM summarization.
package narrative

import (
	"strings"

	"github.com/finpulse/finpulse/internal/question"
	"github.com/finpulse/finpulse/internal/signal"
)

// BuildCFOPrompt renders the four-part instructional prompt: summary,
// likely cause, confirmation needed, next actions. Section order is
// fixed; the text goes verbatim to the LLM and its output quality
// depends on the structure, so do not reorder or reword sections.
func BuildCFOPrompt(signals []signal.Signal, questions []question.Question) string {
	var b strings.Builder

	b.WriteString("You are an AI CFO.\n\n")

	b.WriteString("Given these business signals:\n")
	for _, s := range signals {
		b.WriteString("- ")
		b.WriteString(s.Headline)
		b.WriteString("\n")
	}

	b.WriteString("\nAnd these open questions:\n")
	for _, q := range questions {
		b.WriteString("- ")
		b.WriteString(q.Question)
		b.WriteString("\n")
	}

	b.WriteString("\nWrite:\n")
	b.WriteString("1) A concise CFO-style summary (max 5 bullets)\n")
	b.WriteString("2) What likely caused the changes\n")
	b.WriteString("3) What needs confirmation from the owner\n")
	b.WriteString("4) Suggested next actions\n\n")
	b.WriteString("Use plain English. Be decisive but cautious.\n")

	return b.String()
}
