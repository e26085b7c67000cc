package pipeline

import (
	"fmt"
	"strings"

	"github.com/hearthwood/storyloom/internal/agent"
)

// FormatReport renders the synthesized report as markdown for display.
func FormatReport(r *Report) string {
	var b strings.Builder

	b.WriteString("## Literary Agent Analysis\n")

	if len(r.MergedStrengths) > 0 {
		b.WriteString("\n### Strengths Identified\n\n")
		for _, s := range r.MergedStrengths {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}

	if len(r.MergedConcerns) > 0 {
		b.WriteString("\n### Areas for Improvement\n\n")
		for _, c := range r.MergedConcerns {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}

	if len(r.PrioritizedSuggestions) > 0 {
		b.WriteString("\n### Priority Suggestions\n\n")
		for i, s := range r.PrioritizedSuggestions {
			fmt.Fprintf(&b, "%d. **%s**\n", i+1, s.Text)
			fmt.Fprintf(&b, "   - priority: %s, source: %s\n", s.Priority, prettyAgent(s.SourceAgent))
		}
	}

	if r.NarrativeSummary != "" {
		b.WriteString("\n### Overall Assessment\n\n")
		b.WriteString(r.NarrativeSummary)
		b.WriteString("\n")
	}

	if len(r.AgentsWithErrors) > 0 {
		b.WriteString("\n### Incomplete Coverage\n\n")
		for _, id := range r.AgentsWithErrors {
			fmt.Fprintf(&b, "- %s produced no usable structured result\n", prettyAgent(id))
		}
	}

	return b.String()
}

// prettyAgent renders an agent id as a display name ("prose_stylist" ->
// "Prose Stylist").
func prettyAgent(id agent.ID) string {
	words := strings.Split(string(id), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
