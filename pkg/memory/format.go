package memory

import (
	"strings"

	"github.com/dialpoint/memline/pkg/customer"
)

// promptHistoryLimit caps how many observations make it into the prompt.
// Recall already orders most-recent-first, so the cap keeps the newest.
const promptHistoryLimit = 5

// FormatMemoriesForPrompt renders a recall result as the natural-language
// context block handed to the response generator. Pure formatting: no
// network access, no store reads.
//
// A nil result (recall failed or nothing recalled) renders as the empty
// string so the prompt simply carries no memory context.
func FormatMemoriesForPrompt(memories *customer.RecallResult) string {
	if memories == nil {
		return ""
	}
	if len(memories.Observations) == 0 && len(memories.Summaries) == 0 {
		return ""
	}

	var b strings.Builder

	if len(memories.Observations) > 0 {
		observations := memories.Observations
		if len(observations) > promptHistoryLimit {
			observations = observations[:promptHistoryLimit]
		}

		b.WriteString("Customer History:\n")
		for _, obs := range observations {
			b.WriteString("- ")
			b.WriteString(obs.OccurredAt.Format("Jan 2, 2006"))
			b.WriteString(": ")
			b.WriteString(obs.Content)
			b.WriteString(" (")
			b.WriteString(string(obs.Source))
			b.WriteString(")\n")
		}
	}

	if len(memories.Summaries) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Key Facts:\n")
		for _, summary := range memories.Summaries {
			b.WriteString("- ")
			b.WriteString(summary)
			b.WriteString("\n")
		}
	}

	return b.String()
}
