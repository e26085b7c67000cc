package pipeline

import (
	"context"
	"time"

	"github.com/hearthwood/storyloom/internal/agent"
	"github.com/hearthwood/storyloom/internal/classify"
)

// AgentAnalysis is the persisted record of one terminal agent task. Writes
// are keyed by (RunID, AgentType) so retried saves stay idempotent.
type AgentAnalysis struct {
	ID          string
	RunID       string
	ProjectID   string
	ContentID   string
	ContentType classify.ContentType
	AgentType   agent.ID
	ResultJSON  []byte
	CreatedAt   time.Time
}

// ContentVersion links a piece of analyzed content to its run.
type ContentVersion struct {
	ID              string
	ProjectID       string
	ContentType     classify.ContentType
	OriginalContent string
	EnhancedContent string
	AgentAnalysesID string
	CreatedAt       time.Time
}

// Gateway is the persistence boundary the pipeline writes through. The
// actual store is an external collaborator; writes are at-least-once and
// must be idempotent downstream. A gateway failure never aborts or rolls
// back the in-memory analysis.
type Gateway interface {
	SaveAgentAnalysis(ctx context.Context, rec AgentAnalysis) error
	SaveContentVersion(ctx context.Context, rec ContentVersion) error
}

// NopGateway discards all writes. Used when the caller runs the pipeline
// without a store.
type NopGateway struct{}

func (NopGateway) SaveAgentAnalysis(context.Context, AgentAnalysis) error   { return nil }
func (NopGateway) SaveContentVersion(context.Context, ContentVersion) error { return nil }
