package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON locates the JSON payload in a model response. It checks fenced
// code blocks first, then falls back to brace matching on the first object
// in the text. Returns the input unchanged when nothing better is found.
func ExtractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(text[start:], "```"); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}

	if idx := strings.Index(text, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(text[start:], "```"); end != -1 {
			return strings.TrimSpace(text[start : start+end])
		}
	}

	if start := strings.Index(text, "{"); start != -1 {
		depth := 0
		for i := start; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text
}

// sharedFields are the contract keys lifted into Structured; everything else
// lands in Extra.
var sharedFields = map[string]bool{
	"strengths":   true,
	"concerns":    true,
	"suggestions": true,
}

// ParseStructured strictly parses a model response into the Structured
// variant. It fails (rather than guessing) when the payload is not a JSON
// object or carries none of the contract fields.
func ParseStructured(text string) (*Structured, error) {
	payload := ExtractJSON(text)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, fmt.Errorf("agent: response is not a JSON object: %w", err)
	}

	var out Structured
	known := 0
	if raw, ok := fields["strengths"]; ok {
		if err := json.Unmarshal(raw, &out.Strengths); err != nil {
			return nil, fmt.Errorf("agent: strengths field: %w", err)
		}
		known++
	}
	if raw, ok := fields["concerns"]; ok {
		if err := json.Unmarshal(raw, &out.Concerns); err != nil {
			return nil, fmt.Errorf("agent: concerns field: %w", err)
		}
		known++
	}
	if raw, ok := fields["suggestions"]; ok {
		if err := json.Unmarshal(raw, &out.Suggestions); err != nil {
			return nil, fmt.Errorf("agent: suggestions field: %w", err)
		}
		known++
	}
	if known == 0 {
		return nil, fmt.Errorf("agent: response carries none of the contract fields")
	}

	for key, raw := range fields {
		if sharedFields[key] {
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key] = raw
	}

	return &out, nil
}
