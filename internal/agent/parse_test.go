package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"json fence",
			"Here you go:\n```json\n{\"strengths\": []}\n```\nDone.",
			`{"strengths": []}`,
		},
		{
			"plain fence",
			"```\n{\"concerns\": [\"x\"]}\n```",
			`{"concerns": ["x"]}`,
		},
		{
			"bare object with trailing prose",
			`{"strengths": ["a"], "nested": {"k": 1}} and that is my view`,
			`{"strengths": ["a"], "nested": {"k": 1}}`,
		},
		{
			"no json at all",
			"Sure, here's my analysis: the pacing drags.",
			"Sure, here's my analysis: the pacing drags.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestParseStructured(t *testing.T) {
	raw := "```json\n" + `{
		"strengths": ["vivid opening"],
		"concerns": ["flat middle"],
		"suggestions": [
			{"text": "cut the second flashback", "priority": "high"},
			{"change": "vary sentence openings", "priority": "medium"}
		],
		"pacing_assessment": {"overall_rhythm": "uneven"}
	}` + "\n```"

	s, err := ParseStructured(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"vivid opening"}, s.Strengths)
	assert.Equal(t, []string{"flat middle"}, s.Concerns)
	require.Len(t, s.Suggestions, 2)
	assert.Equal(t, "cut the second flashback", s.Suggestions[0].Text)
	assert.Equal(t, PriorityHigh, s.Suggestions[0].Priority)
	// Alternate field name accepted for the suggestion text.
	assert.Equal(t, "vary sentence openings", s.Suggestions[1].Text)

	// Agent-specific fields survive in Extra.
	require.Contains(t, s.Extra, "pacing_assessment")
}

func TestParseStructured_RejectsProse(t *testing.T) {
	_, err := ParseStructured("Sure, here's my analysis: the pacing drags in act two.")
	require.Error(t, err)
}

func TestParseStructured_RejectsUnrelatedObject(t *testing.T) {
	_, err := ParseStructured(`{"verdict": "fine"}`)
	require.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("High"))
	assert.Equal(t, PriorityHigh, ParsePriority("critical"))
	assert.Equal(t, PriorityMedium, ParsePriority("medium"))
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityLow, ParsePriority("someday"))
}
