package llm

import (
	"context"
	"strings"
)

// MockClient is an offline placeholder provider. It returns a minimal but
// well-formed analysis payload so the pipeline can be driven end to end
// without credentials. Persona prompts that ask for prose (the synthesis
// call) get prose back instead of JSON.
type MockClient struct{}

func (MockClient) Complete(_ context.Context, req Request) (string, error) {
	if strings.Contains(req.System, "Story Advocate") {
		return "The draft shows a confident opening and a clear sense of place. " +
			"Tightening the middle section and grounding the protagonist's motivation " +
			"would lift the whole piece.", nil
	}

	return `{
  "strengths": ["Clear narrative momentum", "Concrete sensory grounding"],
  "concerns": ["The midpoint loses tension"],
  "suggestions": [
    {"text": "Anchor the protagonist's goal in the opening paragraph", "priority": "high"},
    {"text": "Vary sentence length in the second section", "priority": "low"}
  ]
}`, nil
}
