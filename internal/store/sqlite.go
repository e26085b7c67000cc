// Package store persists analysis runs in an embedded SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hearthwood/storyloom/internal/agent"
	"github.com/hearthwood/storyloom/internal/classify"
	"github.com/hearthwood/storyloom/internal/pipeline"
)

// Store implements pipeline.Gateway on a local SQLite file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Enable WAL mode for concurrent read/write access and set a busy
	// timeout so writers retry instead of immediately returning SQLITE_BUSY.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS agent_analyses (
			id            TEXT PRIMARY KEY,
			run_id        TEXT NOT NULL,
			project_id    TEXT,
			content_id    TEXT,
			content_type  TEXT NOT NULL,
			agent_type    TEXT NOT NULL,
			result_json   TEXT NOT NULL,
			created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(run_id, agent_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_run ON agent_analyses(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_content ON agent_analyses(project_id, content_id)`,
		`CREATE TABLE IF NOT EXISTS content_versions (
			id                 TEXT PRIMARY KEY,
			project_id         TEXT,
			content_type       TEXT NOT NULL,
			original_content   TEXT NOT NULL,
			enhanced_content   TEXT,
			agent_analyses_id  TEXT NOT NULL UNIQUE,
			created_at         DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}

	return nil
}

// SaveAgentAnalysis upserts one agent's result. The (run_id, agent_type)
// key makes retried writes idempotent.
func (s *Store) SaveAgentAnalysis(ctx context.Context, rec pipeline.AgentAnalysis) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_analyses (id, run_id, project_id, content_id, content_type, agent_type, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, agent_type) DO UPDATE SET
			result_json = excluded.result_json`,
		rec.ID, rec.RunID, rec.ProjectID, rec.ContentID, string(rec.ContentType),
		string(rec.AgentType), string(rec.ResultJSON), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save agent analysis: %w", err)
	}
	return nil
}

// SaveContentVersion upserts the analyzed content snapshot, keyed to its run.
func (s *Store) SaveContentVersion(ctx context.Context, rec pipeline.ContentVersion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_versions (id, project_id, content_type, original_content, enhanced_content, agent_analyses_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_analyses_id) DO UPDATE SET
			original_content = excluded.original_content,
			enhanced_content = excluded.enhanced_content`,
		rec.ID, rec.ProjectID, string(rec.ContentType), rec.OriginalContent,
		nullable(rec.EnhancedContent), rec.AgentAnalysesID, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save content version: %w", err)
	}
	return nil
}

// ListAgentAnalyses returns every stored result for one run, ordered by
// creation time then agent type for stable output.
func (s *Store) ListAgentAnalyses(ctx context.Context, runID string) ([]pipeline.AgentAnalysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, project_id, content_id, content_type, agent_type, result_json, created_at
		FROM agent_analyses WHERE run_id = ? ORDER BY created_at, agent_type`, runID)
	if err != nil {
		return nil, fmt.Errorf("list agent analyses: %w", err)
	}
	defer rows.Close()

	var out []pipeline.AgentAnalysis
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent analysis: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetContentVersion returns the content snapshot of one run, or nil when the
// run never persisted one.
func (s *Store) GetContentVersion(ctx context.Context, runID string) (*pipeline.ContentVersion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, content_type, original_content, enhanced_content, agent_analyses_id, created_at
		FROM content_versions WHERE agent_analyses_id = ?`, runID)

	rec := &pipeline.ContentVersion{}
	var ctype string
	var enhanced *string
	var created time.Time
	err := row.Scan(&rec.ID, &rec.ProjectID, &ctype, &rec.OriginalContent, &enhanced, &rec.AgentAnalysesID, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content version: %w", err)
	}
	rec.ContentType = classify.ContentType(ctype)
	rec.CreatedAt = created
	if enhanced != nil {
		rec.EnhancedContent = *enhanced
	}
	return rec, nil
}

func scanAnalysis(scanner interface {
	Scan(dest ...any) error
}) (*pipeline.AgentAnalysis, error) {
	rec := &pipeline.AgentAnalysis{}
	var ctype, atype, result string
	err := scanner.Scan(&rec.ID, &rec.RunID, &rec.ProjectID, &rec.ContentID, &ctype, &atype, &result, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.ContentType = classify.ContentType(ctype)
	rec.AgentType = agent.ID(atype)
	rec.ResultJSON = []byte(result)
	return rec, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
