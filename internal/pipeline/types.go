// Package pipeline drives the staged, partially-parallel analysis schedule:
// it dispatches the agent roster stage by stage behind strict barriers,
// merges the surviving results into one report, and emits progress events
// to the caller without ever blocking the primary response path.
package pipeline

import (
	"time"

	"github.com/hearthwood/storyloom/internal/agent"
	"github.com/hearthwood/storyloom/internal/classify"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunPending             RunStatus = "pending"
	RunRunning             RunStatus = "running"
	RunCompletedClean      RunStatus = "completed_clean"
	RunCompletedWithErrors RunStatus = "completed_with_errors"
	RunFailed              RunStatus = "failed"
)

// Run is one complete execution of all stages for a single request. It owns
// every agent task dispatched for that request.
type Run struct {
	ID          string
	ContentID   string
	StartedAt   time.Time
	CompletedAt time.Time
	Status      RunStatus
}

// Request is the trigger input from the calling layer. ContentType may name
// an explicit type or be empty/"auto" for keyword detection.
type Request struct {
	ProjectID   string
	ContentID   string
	Content     string
	ContentType string
	Enabled     bool
	Project     agent.ProjectContext
}

// RankedSuggestion is one deduplicated suggestion in the final report,
// tagged with the agent that produced it.
type RankedSuggestion struct {
	Text        string         `json:"text"`
	Priority    agent.Priority `json:"priority"`
	SourceAgent agent.ID       `json:"source_agent"`
}

// Report is the synthesized output of a completed run. List fields are
// always non-nil, possibly empty.
type Report struct {
	RunID                  string               `json:"run_id"`
	ContentType            classify.ContentType `json:"content_type"`
	MergedStrengths        []string             `json:"merged_strengths"`
	MergedConcerns         []string             `json:"merged_concerns"`
	PrioritizedSuggestions []RankedSuggestion   `json:"prioritized_suggestions"`
	NarrativeSummary       string               `json:"narrative_summary"`
	AgentsWithErrors       []agent.ID           `json:"agents_with_errors"`
}
