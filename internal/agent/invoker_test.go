package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwood/storyloom/internal/classify"
	"github.com/hearthwood/storyloom/internal/llm"
)

// fakeClient implements llm.Client with a configurable function.
type fakeClient struct {
	complete func(ctx context.Context, req llm.Request) (string, error)
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	return f.complete(ctx, req)
}

const validAnalysis = `{
	"strengths": ["strong sense of place"],
	"concerns": ["rushed ending"],
	"suggestions": [{"text": "slow the final scene", "priority": "high"}]
}`

func chapterRequest() Request {
	return Request{
		Content:     "Elena boards the ship at dawn, the harbor behind her.",
		ContentType: classify.TypeChapter,
		Project: ProjectContext{
			Title: "The Crossing",
			Genre: "literary fiction",
		},
	}
}

func TestInvoke_Succeeds(t *testing.T) {
	client := &fakeClient{complete: func(ctx context.Context, req llm.Request) (string, error) {
		return validAnalysis, nil
	}}
	inv := NewInvoker(client, time.Second)

	spec, ok := ByID(Architect)
	require.True(t, ok)

	task := inv.Invoke(context.Background(), "run-1", spec, chapterRequest())

	assert.Equal(t, StatusSucceeded, task.Status)
	require.True(t, task.Result.IsStructured())
	assert.Equal(t, []string{"strong sense of place"}, task.Result.Structured.Strengths)
	assert.True(t, task.Status.Terminal())
	assert.False(t, task.Fatal())
}

func TestInvoke_UnparsableResponseSoftFailsWithRawFallback(t *testing.T) {
	client := &fakeClient{complete: func(ctx context.Context, req llm.Request) (string, error) {
		return "Sure, here's my analysis: the middle sags a bit.", nil
	}}
	inv := NewInvoker(client, time.Second)

	spec, _ := ByID(Research)
	task := inv.Invoke(context.Background(), "run-1", spec, chapterRequest())

	assert.Equal(t, StatusSoftFailed, task.Status)
	require.NotNil(t, task.Result)
	assert.False(t, task.Result.IsStructured())
	assert.Contains(t, task.Result.Raw, "the middle sags")
	assert.Error(t, task.Err)
}

func TestInvoke_ErrorKinds(t *testing.T) {
	tests := []struct {
		kind  llm.Kind
		want  Status
		fatal bool
	}{
		{llm.KindTimeout, StatusSoftFailed, false},
		{llm.KindTransient, StatusSoftFailed, false},
		{llm.KindRateLimit, StatusHardFailed, false},
		{llm.KindAuth, StatusHardFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			client := &fakeClient{complete: func(ctx context.Context, req llm.Request) (string, error) {
				return "", &llm.Error{Kind: tt.kind, Err: errors.New("boom")}
			}}
			inv := NewInvoker(client, time.Second)

			spec, _ := ByID(Continuity)
			task := inv.Invoke(context.Background(), "run-1", spec, chapterRequest())

			assert.Equal(t, tt.want, task.Status)
			assert.Equal(t, tt.fatal, task.Fatal())
			assert.Nil(t, task.Result)
		})
	}
}

func TestBuildPrompt_ProjectContextAndContent(t *testing.T) {
	spec, _ := ByID(Architect)
	prompt := BuildPrompt(spec, chapterRequest())

	assert.Contains(t, prompt, "Title: The Crossing")
	assert.Contains(t, prompt, "Genre: literary fiction")
	assert.Contains(t, prompt, "Elena boards the ship")
	assert.Contains(t, prompt, "chapter")
	// Empty fields are omitted entirely.
	assert.NotContains(t, prompt, "Premise:")
}

func TestBuildPrompt_PriorResultsOnlyForSynthesisStage(t *testing.T) {
	req := chapterRequest()
	req.Prior = "ARCHITECT strengths: clean act structure"

	early, _ := ByID(ProseStylist)
	assert.NotContains(t, BuildPrompt(early, req), "Previous Agent Insights")

	late, _ := ByID(BetaReader)
	got := BuildPrompt(late, req)
	assert.Contains(t, got, "Previous Agent Insights")
	assert.Contains(t, got, "clean act structure")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	spec, _ := ByID(Atmosphere)
	req := chapterRequest()
	assert.Equal(t, BuildPrompt(spec, req), BuildPrompt(spec, req))
}

func TestCondense(t *testing.T) {
	tasks := []Task{
		{
			Agent:  ProseStylist,
			Status: StatusSucceeded,
			Result: &Result{Structured: &Structured{
				Strengths: []string{"musical sentences"},
				Concerns:  []string{"adverb pileups"},
			}},
		},
		{
			Agent:  Architect,
			Status: StatusSucceeded,
			Result: &Result{Structured: &Structured{Strengths: []string{"solid spine"}}},
		},
		{
			Agent:  Research,
			Status: StatusSoftFailed,
			Result: &Result{Raw: "not json"},
		},
	}

	got := Condense(tasks)

	// Roster order, not input order: architect before prose stylist.
	archIdx := strings.Index(got, "ARCHITECT")
	proseIdx := strings.Index(got, "PROSE_STYLIST")
	require.GreaterOrEqual(t, archIdx, 0)
	require.Greater(t, proseIdx, archIdx)

	assert.Contains(t, got, "adverb pileups")
	// Raw fallback results contribute nothing.
	assert.NotContains(t, got, "RESEARCH")
}

func TestRoster_StagePlan(t *testing.T) {
	assert.Len(t, Roster, 9)

	core := StageAgents(StageCore)
	review := StageAgents(StageReview)
	final := StageAgents(StageSynthesis)

	assert.Len(t, core, 4)
	assert.Len(t, review, 3)
	require.Len(t, final, 2)
	// The reader pass precedes synthesis.
	assert.Equal(t, BetaReader, final[0].ID)
	assert.Equal(t, StoryAdvocate, final[1].ID)
}
