// Package agent defines the nine literary analysis agents, their staged
// execution schedule, and the invoker that turns one agent dispatch into a
// terminal task.
package agent

// ID identifies a specialist agent.
type ID string

const (
	Architect             ID = "architect"
	CharacterPsychologist ID = "character_psychologist"
	ProseStylist          ID = "prose_stylist"
	Atmosphere            ID = "atmosphere"
	Research              ID = "research"
	Continuity            ID = "continuity"
	Redundancy            ID = "redundancy"
	BetaReader            ID = "beta_reader"
	StoryAdvocate         ID = "story_advocate"
)

// Stage groups agents behind a synchronization barrier. Agents within a
// stage run concurrently; a later stage starts only after the current stage
// fully drains.
type Stage int

const (
	StageCore      Stage = 1 // independent craft analysis
	StageReview    Stage = 2 // consistency and accuracy review
	StageSynthesis Stage = 3 // sequential: reader pass, then synthesis
)

// Spec describes one agent: its identity, stage, and persona prompt.
type Spec struct {
	ID      ID
	Stage   Stage
	Persona string
}

// Roster is the full schedule as data. Declaration order is the canonical
// tie-break order for report output; within stages 1 and 2 it carries no
// execution-order guarantee.
var Roster = []Spec{
	{Architect, StageCore, personaArchitect},
	{CharacterPsychologist, StageCore, personaCharacterPsychologist},
	{ProseStylist, StageCore, personaProseStylist},
	{Atmosphere, StageCore, personaAtmosphere},
	{Research, StageReview, personaResearch},
	{Continuity, StageReview, personaContinuity},
	{Redundancy, StageReview, personaRedundancy},
	{BetaReader, StageSynthesis, personaBetaReader},
	{StoryAdvocate, StageSynthesis, personaStoryAdvocate},
}

// ByID returns the Spec for id, or false when id is not on the roster.
func ByID(id ID) (Spec, bool) {
	for _, sp := range Roster {
		if sp.ID == id {
			return sp, true
		}
	}
	return Spec{}, false
}

// StageAgents returns the roster entries for one stage, in declaration order.
func StageAgents(stage Stage) []Spec {
	var out []Spec
	for _, sp := range Roster {
		if sp.Stage == stage {
			out = append(out, sp)
		}
	}
	return out
}

// RosterIndex returns the declaration position of id, or len(Roster) for
// unknown ids so they sort last.
func RosterIndex(id ID) int {
	for i, sp := range Roster {
		if sp.ID == id {
			return i
		}
	}
	return len(Roster)
}
