package pipeline

import (
	"fmt"

	"github.com/hearthwood/storyloom/internal/agent"
)

// EventType tags an entry on the run's event stream.
type EventType string

const (
	// EventAnalysisStart is emitted once, when dispatch begins.
	EventAnalysisStart EventType = "analysis_start"

	// EventAgentResult is emitted per agent task as it reaches a terminal
	// status, in actual completion order.
	EventAgentResult EventType = "agent_result"

	// EventAnalysisComplete carries the final report.
	EventAnalysisComplete EventType = "analysis_complete"

	// EventAnalysisError is emitted instead of analysis_complete when the
	// run itself failed. Individual agent failures do not produce it.
	EventAnalysisError EventType = "analysis_error"
)

// Event is one entry on a run's event stream.
type Event struct {
	Type      EventType
	Agent     agent.ID
	Status    agent.Status
	Summary   string
	RunStatus RunStatus
	Report    *Report
	Err       error
}

// eventBuffer comfortably exceeds the maximum number of events one run can
// produce (start + nine agent results + one terminal), so sends never block
// even when the caller drains lazily.
const eventBuffer = 64

// taskSummary renders the one-line result summary carried on agent_result
// events.
func taskSummary(t agent.Task) string {
	switch {
	case t.Result.IsStructured():
		s := t.Result.Structured
		return fmt.Sprintf("%d strengths, %d concerns, %d suggestions",
			len(s.Strengths), len(s.Concerns), len(s.Suggestions))
	case t.Result != nil:
		return "unstructured response retained"
	case t.Err != nil:
		return t.Err.Error()
	default:
		return string(t.Status)
	}
}

// FormatEvent renders an event as a human-readable status line for CLI
// consumers.
func FormatEvent(ev Event) string {
	switch ev.Type {
	case EventAnalysisStart:
		return "  ● analysis started"
	case EventAgentResult:
		mark := "✓"
		if ev.Status != agent.StatusSucceeded {
			mark = "✗"
		}
		return fmt.Sprintf("  %s %s: %s", mark, ev.Agent, ev.Summary)
	case EventAnalysisComplete:
		return "  ✓ analysis complete"
	case EventAnalysisError:
		return fmt.Sprintf("  ✗ analysis failed: %v", ev.Err)
	default:
		return fmt.Sprintf("  ? unknown event %q", ev.Type)
	}
}
