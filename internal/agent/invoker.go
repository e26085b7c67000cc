package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hearthwood/storyloom/internal/classify"
	"github.com/hearthwood/storyloom/internal/llm"
)

// Status is the lifecycle state of an agent task. Succeeded, SoftFailed,
// and HardFailed are terminal; a task is never mutated after reaching one.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusSoftFailed Status = "soft_failed"
	StatusHardFailed Status = "hard_failed"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusSoftFailed || s == StatusHardFailed
}

// Task is the outcome of one agent dispatch within a run.
type Task struct {
	RunID       string
	Agent       ID
	Stage       Stage
	Status      Status
	Result      *Result
	Err         error
	ErrKind     llm.Kind
	StartedAt   time.Time
	CompletedAt time.Time
}

// Fatal reports whether this task's failure must abort the whole run. Only
// an authentication failure qualifies: no later agent can proceed without
// valid credentials.
func (t *Task) Fatal() bool {
	return t.Status == StatusHardFailed && t.ErrKind == llm.KindAuth
}

// ProjectContext carries the optional free-text project metadata included in
// every agent prompt.
type ProjectContext struct {
	Title   string
	Author  string
	Genre   string
	Premise string
	Themes  string
	Setting string
}

// Request is the per-invocation input to an agent.
type Request struct {
	Content     string
	ContentType classify.ContentType
	Project     ProjectContext

	// Prior is the condensed insight summary from earlier stages. It is
	// only populated for stage-3 agents; earlier stages never see each
	// other's output.
	Prior string
}

// DefaultTimeout bounds a single agent invocation.
const DefaultTimeout = 90 * time.Second

// Invoker executes one agent dispatch: prompt construction, the bounded
// external call, and response parsing into a terminal Task.
type Invoker struct {
	client  llm.Client
	timeout time.Duration
}

// NewInvoker creates an Invoker. A zero timeout falls back to DefaultTimeout.
func NewInvoker(client llm.Client, timeout time.Duration) *Invoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Invoker{client: client, timeout: timeout}
}

// Invoke runs one agent against the content and always returns a terminal
// task: failures are folded into the task status, never raised across the
// stage boundary.
func (inv *Invoker) Invoke(ctx context.Context, runID string, spec Spec, req Request) Task {
	task := Task{
		RunID:     runID,
		Agent:     spec.ID,
		Stage:     spec.Stage,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}

	callCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	raw, err := inv.client.Complete(callCtx, llm.Request{
		System: spec.Persona,
		User:   BuildPrompt(spec, req),
	})
	if err != nil {
		kind := llm.KindOf(err)
		task.Err = err
		task.ErrKind = kind
		switch kind {
		case llm.KindTimeout, llm.KindTransient:
			task.Status = StatusSoftFailed
		default:
			// Auth, rate limit, and everything unclassified: the
			// call itself was rejected, not merely slow.
			task.Status = StatusHardFailed
		}
		task.CompletedAt = time.Now()
		return task
	}

	structured, perr := ParseStructured(raw)
	if perr != nil {
		// Keep the raw text so downstream rendering degrades instead of
		// losing the response.
		task.Status = StatusSoftFailed
		task.Result = &Result{Raw: raw}
		task.Err = perr
		task.CompletedAt = time.Now()
		return task
	}

	task.Status = StatusSucceeded
	task.Result = &Result{Structured: structured}
	task.CompletedAt = time.Now()
	return task
}

// BuildPrompt assembles the deterministic user message for one agent. The
// prior-stage section is included only for stage-3 agents.
func BuildPrompt(spec Spec, req Request) string {
	var b strings.Builder

	b.WriteString("## Project Context\n")
	b.WriteString(formatProject(req.Project))

	fmt.Fprintf(&b, "\n## Content Type\n%s\n", req.ContentType)

	b.WriteString("\n## Content to Analyze\n\n")
	b.WriteString(req.Content)
	b.WriteString("\n")

	if spec.Stage == StageSynthesis && req.Prior != "" {
		b.WriteString("\n## Previous Agent Insights\n")
		b.WriteString(req.Prior)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nAnalyze this content according to your role. Provide specific, actionable feedback that will help improve this %s.\n", req.ContentType)

	return b.String()
}

// formatProject renders the non-empty project fields, one per line, in a
// fixed order.
func formatProject(p ProjectContext) string {
	fields := []struct {
		label, value string
	}{
		{"Title", p.Title},
		{"Author", p.Author},
		{"Genre", p.Genre},
		{"Premise", p.Premise},
		{"Themes", p.Themes},
		{"Setting", p.Setting},
	}

	var lines []string
	for _, f := range fields {
		if f.value != "" {
			lines = append(lines, f.label+": "+f.value)
		}
	}
	if len(lines) == 0 {
		return "No project context available\n"
	}
	return strings.Join(lines, "\n") + "\n"
}

// Condense summarizes terminal tasks into the compact insight block handed
// to stage-3 agents, bounding their request size. Only structured results
// contribute; order follows the roster.
func Condense(tasks []Task) string {
	byID := make(map[ID]*Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].Agent] = &tasks[i]
	}

	var b strings.Builder
	for _, sp := range Roster {
		t, ok := byID[sp.ID]
		if !ok || !t.Result.IsStructured() {
			continue
		}
		s := t.Result.Structured
		name := strings.ToUpper(string(sp.ID))
		if len(s.Strengths) > 0 {
			fmt.Fprintf(&b, "%s strengths: %s\n", name, strings.Join(s.Strengths, "; "))
		}
		if len(s.Concerns) > 0 {
			fmt.Fprintf(&b, "%s concerns: %s\n", name, strings.Join(s.Concerns, "; "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
