// Package llm abstracts the external text-generation service behind a small
// client interface so the analysis pipeline can be exercised against mocks
// and alternative providers.
package llm

import "context"

// Request is one completion request: a system persona and a user message.
type Request struct {
	System string
	User   string
}

// Client is the text-generation boundary the pipeline calls through.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Settings carries provider configuration for concrete clients.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
