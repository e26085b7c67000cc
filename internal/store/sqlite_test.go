package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwood/storyloom/internal/agent"
	"github.com/hearthwood/storyloom/internal/classify"
	"github.com/hearthwood/storyloom/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "storyloom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAgentAnalysis_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	payload := []byte(`{"structured":{"strengths":["tight pacing"],"concerns":[],"suggestions":[]}}`)
	rec := pipeline.AgentAnalysis{
		ID:          "an-1",
		RunID:       "run-1",
		ProjectID:   "proj-1",
		ContentID:   "content-1",
		ContentType: classify.TypeChapter,
		AgentType:   agent.Architect,
		ResultJSON:  payload,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.SaveAgentAnalysis(ctx, rec))

	got, err := s.ListAgentAnalyses(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, classify.TypeChapter, got[0].ContentType)
	assert.Equal(t, agent.Architect, got[0].AgentType)
	assert.Equal(t, payload, got[0].ResultJSON, "stored result must round-trip byte for byte")
}

func TestSaveAgentAnalysis_IdempotentPerRunAndAgent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := pipeline.AgentAnalysis{
		ID:          "an-1",
		RunID:       "run-1",
		ContentType: classify.TypeScene,
		AgentType:   agent.Research,
		ResultJSON:  []byte(`{"raw":"first"}`),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.SaveAgentAnalysis(ctx, first))

	retried := first
	retried.ID = "an-2"
	retried.ResultJSON = []byte(`{"raw":"second"}`)
	require.NoError(t, s.SaveAgentAnalysis(ctx, retried))

	got, err := s.ListAgentAnalyses(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1, "retried write must not create a duplicate row")
	assert.Equal(t, []byte(`{"raw":"second"}`), got[0].ResultJSON)

	// A different agent in the same run is a separate row.
	other := first
	other.ID = "an-3"
	other.AgentType = agent.Continuity
	require.NoError(t, s.SaveAgentAnalysis(ctx, other))

	got, err = s.ListAgentAnalyses(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSaveContentVersion(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := pipeline.ContentVersion{
		ID:              "cv-1",
		ProjectID:       "proj-1",
		ContentType:     classify.TypeChapter,
		OriginalContent: "Elena boards the ship at dawn.",
		AgentAnalysesID: "run-1",
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, s.SaveContentVersion(ctx, rec))

	got, err := s.GetContentVersion(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.OriginalContent, got.OriginalContent)
	assert.Empty(t, got.EnhancedContent)

	// Retried write with an enhanced draft updates in place.
	rec.ID = "cv-2"
	rec.EnhancedContent = "Elena boards the ship at first light."
	require.NoError(t, s.SaveContentVersion(ctx, rec))

	got, err = s.GetContentVersion(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Elena boards the ship at first light.", got.EnhancedContent)

	missing, err := s.GetContentVersion(ctx, "run-nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStoreImplementsGateway(t *testing.T) {
	var _ pipeline.Gateway = (*Store)(nil)
}
