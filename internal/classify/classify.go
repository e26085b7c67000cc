// Package classify labels narrative content with a content type using
// fixed keyword rules, and gates whether a piece of content is substantial
// enough to run through the analysis pipeline.
package classify

import "strings"

// ContentType labels a piece of narrative content.
type ContentType string

const (
	TypeOutline     ContentType = "outline"
	TypeChapter     ContentType = "chapter"
	TypeScene       ContentType = "scene"
	TypeCharacter   ContentType = "character"
	TypeDialogue    ContentType = "dialogue"
	TypeDescription ContentType = "description"
	TypeRevision    ContentType = "revision"
	TypeGeneral     ContentType = "general"
)

// MinContentLength is the minimum content length, in bytes, that triggers
// the analysis pipeline. Shorter content short-circuits before the
// classifier runs.
const MinContentLength = 50

// rule binds a content type to its trigger keywords. Rules are evaluated in
// declaration order; the first rule with a matching keyword wins.
type rule struct {
	ctype    ContentType
	keywords []string
}

var rules = []rule{
	{TypeOutline, []string{"outline", "structure", "plot", "arc", "plan"}},
	{TypeChapter, []string{"chapter"}},
	{TypeScene, []string{"scene"}},
	{TypeCharacter, []string{"character", "protagonist", "antagonist", "profile"}},
	{TypeDialogue, []string{"dialogue", "conversation", "talk", "speak"}},
	{TypeDescription, []string{"describe", "description", "setting", "atmosphere"}},
	{TypeRevision, []string{"revise", "edit", "improve", "rewrite", "fix"}},
}

// Detect returns the content type for text. It always returns a value from
// the fixed enum, defaulting to TypeGeneral when no rule matches.
func Detect(text string) ContentType {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.ctype
			}
		}
	}
	return TypeGeneral
}

// Parse returns the ContentType named by s, or false when s is not a member
// of the enum. Matching is case-insensitive.
func Parse(s string) (ContentType, bool) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeOutline:
		return TypeOutline, true
	case TypeChapter:
		return TypeChapter, true
	case TypeScene:
		return TypeScene, true
	case TypeCharacter:
		return TypeCharacter, true
	case TypeDialogue:
		return TypeDialogue, true
	case TypeDescription:
		return TypeDescription, true
	case TypeRevision:
		return TypeRevision, true
	case TypeGeneral:
		return TypeGeneral, true
	}
	return "", false
}

// Resolve returns the explicit type when it names a valid enum member, and
// otherwise falls back to keyword detection on the text.
func Resolve(explicit string, text string) ContentType {
	if ct, ok := Parse(explicit); ok {
		return ct
	}
	return Detect(text)
}

// substantial lists the content types that benefit from the full agent
// analysis. General chatter is excluded.
var substantial = map[ContentType]bool{
	TypeOutline:     true,
	TypeChapter:     true,
	TypeScene:       true,
	TypeCharacter:   true,
	TypeDialogue:    true,
	TypeDescription: true,
	TypeRevision:    true,
}

// ShouldAnalyze reports whether content should be run through the analysis
// pipeline. The gate short-circuits on the enabled flag and the minimum
// length before any classification happens.
func ShouldAnalyze(enabled bool, ctype ContentType, content string) bool {
	if !enabled {
		return false
	}
	if len(content) < MinContentLength {
		return false
	}
	return substantial[ctype]
}
