package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hearthwood/storyloom/internal/agent"
	"github.com/hearthwood/storyloom/internal/classify"
	"github.com/hearthwood/storyloom/internal/llm"
)

// synthesize merges all terminal task results into the final report and
// issues the single narrative-summary call. The summary request carries only
// the condensed, deduplicated lists, never the raw per-agent payloads, so
// its size stays bounded. The returned task is the story advocate's own
// terminal record.
func (c *Coordinator) synthesize(ctx context.Context, run *Run, ctype classify.ContentType, tasks []agent.Task) (*Report, agent.Task, error) {
	report := &Report{
		RunID:                  run.ID,
		ContentType:            ctype,
		MergedStrengths:        []string{},
		MergedConcerns:         []string{},
		PrioritizedSuggestions: []RankedSuggestion{},
		AgentsWithErrors:       []agent.ID{},
	}

	// Index tasks by agent; iterate the roster so merge order is the fixed
	// declaration order, not completion order.
	byID := make(map[agent.ID]*agent.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].Agent] = &tasks[i]
	}

	var collected []RankedSuggestion
	for _, sp := range agent.Roster {
		t, ok := byID[sp.ID]
		if !ok {
			continue
		}
		if !t.Result.IsStructured() {
			continue
		}
		s := t.Result.Structured
		report.MergedStrengths = append(report.MergedStrengths, s.Strengths...)
		report.MergedConcerns = append(report.MergedConcerns, s.Concerns...)
		for _, sug := range s.Suggestions {
			if strings.TrimSpace(sug.Text) == "" {
				continue
			}
			collected = append(collected, RankedSuggestion{
				Text:        sug.Text,
				Priority:    sug.Priority,
				SourceAgent: sp.ID,
			})
		}
	}

	deduped := dedupeSuggestions(collected)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Priority > deduped[j].Priority
	})
	report.PrioritizedSuggestions = deduped

	for _, sp := range agent.Roster {
		if sp.ID == agent.StoryAdvocate {
			continue // its own outcome is decided below
		}
		if t, ok := byID[sp.ID]; ok && t.Status != agent.StatusSucceeded {
			report.AgentsWithErrors = append(report.AgentsWithErrors, sp.ID)
		}
	}

	task := agent.Task{
		RunID:     run.ID,
		Agent:     agent.StoryAdvocate,
		Stage:     agent.StageSynthesis,
		Status:    agent.StatusRunning,
		StartedAt: time.Now(),
	}

	advocate, _ := agent.ByID(agent.StoryAdvocate)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	summary, err := c.client.Complete(callCtx, llm.Request{
		System: advocate.Persona,
		User:   synthesisPrompt(ctype, report),
	})
	if err != nil {
		task.Status = agent.StatusHardFailed
		task.Err = err
		task.ErrKind = llm.KindOf(err)
		task.CompletedAt = time.Now()
		return nil, task, fmt.Errorf("pipeline: synthesis call failed: %w", err)
	}

	report.NarrativeSummary = strings.TrimSpace(summary)

	// The advocate's contract is prose; its result is the raw variant.
	task.Status = agent.StatusSucceeded
	task.Result = &agent.Result{Raw: report.NarrativeSummary}
	task.CompletedAt = time.Now()

	return report, task, nil
}

// dedupeSuggestions collapses near-identical suggestions using a
// case-insensitive substring-containment heuristic: when one suggestion's
// text contains the other's (either direction), the one with the higher
// priority survives; on equal priority the earlier entry (fixed roster
// order) wins. The scan is deterministic given deterministic input order.
func dedupeSuggestions(in []RankedSuggestion) []RankedSuggestion {
	out := make([]RankedSuggestion, 0, len(in))

	for _, cand := range in {
		dup := -1
		for i := range out {
			if containsEither(out[i].Text, cand.Text) {
				dup = i
				break
			}
		}
		if dup == -1 {
			out = append(out, cand)
			continue
		}
		if cand.Priority > out[dup].Priority {
			out[dup] = cand
		}
	}

	return out
}

// containsEither reports whether either string contains the other,
// case-insensitively.
func containsEither(a, b string) bool {
	la, lb := strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return false
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// synthesisPrompt builds the bounded user message for the narrative-summary
// call: merged lists only, no raw agent payloads.
func synthesisPrompt(ctype classify.ContentType, r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Content Type\n%s\n", ctype)

	b.WriteString("\n## Merged Strengths\n")
	writeList(&b, r.MergedStrengths)

	b.WriteString("\n## Merged Concerns\n")
	writeList(&b, r.MergedConcerns)

	b.WriteString("\n## Prioritized Suggestions\n")
	if len(r.PrioritizedSuggestions) == 0 {
		b.WriteString("(none)\n")
	}
	for _, s := range r.PrioritizedSuggestions {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", s.Priority, s.Text, s.SourceAgent)
	}

	if len(r.AgentsWithErrors) > 0 {
		b.WriteString("\n## Specialists Without Usable Results\n")
		for _, id := range r.AgentsWithErrors {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	b.WriteString("\nWrite the narrative assessment for the author.\n")
	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
