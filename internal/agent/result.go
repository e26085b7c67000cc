package agent

import (
	"encoding/json"
	"strings"
)

// Priority ranks a suggestion. Higher values sort first.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// ParsePriority maps a free-text priority tag to a Priority, defaulting to
// low for anything unrecognized.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical":
		return PriorityHigh
	case "medium", "important":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// MarshalJSON renders the priority as its tag so stored analyses stay
// readable.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = ParsePriority(s)
	return nil
}

// Suggestion is one actionable recommendation from an agent.
type Suggestion struct {
	Text     string   `json:"text"`
	Priority Priority `json:"priority"`
}

// UnmarshalJSON accepts the alternate field names agents drift into
// ("change", "recommendation", "issue") in place of "text".
func (s *Suggestion) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text           string   `json:"text"`
		Change         string   `json:"change"`
		Recommendation string   `json:"recommendation"`
		Issue          string   `json:"issue"`
		Priority       Priority `json:"priority"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Text = raw.Text
	for _, alt := range []string{raw.Change, raw.Recommendation, raw.Issue} {
		if s.Text == "" {
			s.Text = alt
		}
	}
	s.Priority = raw.Priority
	if s.Priority == 0 {
		s.Priority = PriorityLow
	}
	return nil
}

// Structured is the parsed form of an agent response. Extra holds any
// agent-specific fields beyond the shared contract, preserved verbatim.
type Structured struct {
	Strengths   []string                   `json:"strengths"`
	Concerns    []string                   `json:"concerns"`
	Suggestions []Suggestion               `json:"suggestions"`
	Extra       map[string]json.RawMessage `json:"extra,omitempty"`
}

// Result is a tagged variant: exactly one of Structured or Raw is populated.
// Raw retains the unparsable response text so nothing is lost when an agent
// goes off-script.
type Result struct {
	Structured *Structured `json:"structured,omitempty"`
	Raw        string      `json:"raw,omitempty"`
}

// IsStructured reports whether the result carries the parsed variant.
func (r *Result) IsStructured() bool {
	return r != nil && r.Structured != nil
}
