// Package config loads project-level settings from storyloom.yml.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects the completion provider and model.
type LLMConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"apiKey,omitempty"`
	BaseURL  string `yaml:"baseUrl,omitempty"`
}

// PipelineConfig tunes the analysis run.
type PipelineConfig struct {
	Enabled        bool  `yaml:"enabled"`
	Concurrency    int64 `yaml:"concurrency,omitempty"`
	TimeoutSeconds int   `yaml:"timeoutSeconds,omitempty"`
}

// StoreConfig locates the local database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// ProjectConfig holds settings loaded from storyloom.yml, plus the project
// metadata passed to every agent.
type ProjectConfig struct {
	Title   string   `yaml:"title,omitempty"`
	Author  string   `yaml:"author,omitempty"`
	Genre   string   `yaml:"genre,omitempty"`
	Premise string   `yaml:"premise,omitempty"`
	Themes  []string `yaml:"themes,omitempty"`
	Setting string   `yaml:"setting,omitempty"`

	LLM      LLMConfig      `yaml:"llm,omitempty"`
	Pipeline PipelineConfig `yaml:"pipeline,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
}

// Load attempts to read storyloom.yml or storyloom.yaml from the given
// directory. Returns a defaulted config (not an error) if no config file
// exists. The API key falls back to STORYLOOM_API_KEY, then OPENAI_API_KEY.
func Load(dir string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{}
	for _, name := range []string{"storyloom.yml", "storyloom.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *ProjectConfig) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("STORYLOOM_API_KEY")
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Pipeline.Concurrency <= 0 {
		c.Pipeline.Concurrency = 4
	}
	if c.Pipeline.TimeoutSeconds <= 0 {
		c.Pipeline.TimeoutSeconds = 90
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(".storyloom", "storyloom.db")
	}
}
