// Package domain contains pure, dependency-free domain models and types
// for the tournament round-progression engine.
package domain

// Level identifies an ordered stage of competition within a category.
// Ordering is defined by the LevelSequence of the category's discipline,
// not by the Level value itself.
type Level string

// Kumite elimination levels. Bronze runs in parallel with Final when the
// format's bronze policy is "playoff"; it never gates Final's advancement.
const (
	LevelPreliminary  Level = "preliminary"
	LevelQuarterfinal Level = "quarterfinal"
	LevelSemifinal    Level = "semifinal"
	LevelFinal        Level = "final"
	LevelBronze       Level = "bronze"
)

// Kata judged rounds. The Final 4 is the terminal placement round: places
// are assigned manually by the judges and override score ordering.
const (
	LevelFirstRound  Level = "first_round"
	LevelSecondRound Level = "second_round"
	LevelFinalFour   Level = "final_four"
)

// RoundKind selects the comparator a RoundRanker applies to a round.
type RoundKind string

const (
	// RoundKindDefault ranks by final score descending, with incomplete
	// entities sinking to the bottom and registration order breaking ties.
	RoundKindDefault RoundKind = "default"

	// RoundKindTerminal ranks explicitly assigned places first, falling
	// back to the default comparator for entities without a place.
	RoundKindTerminal RoundKind = "terminal"
)

// LevelState describes where one (category, level) pair sits in the
// progression state machine.
type LevelState string

const (
	// LevelNotStarted means no entity exists at the level yet.
	LevelNotStarted LevelState = "not_started"

	// LevelOpen means at least one entity exists and at least one is not
	// yet terminal.
	LevelOpen LevelState = "open"

	// LevelClosed means every entity at the level is terminal, or the next
	// level's entities already exist (advancement has happened). Closed
	// never reverts to Open.
	LevelClosed LevelState = "closed"
)

// LevelSequence is the ordered main progression for a discipline, with an
// optional consolation level that runs in parallel with the last main level.
type LevelSequence struct {
	// Main lists the levels in progression order. The last entry is the
	// terminal level.
	Main []Level

	// Consolation names a level fed by the losers of the next-to-last main
	// level (the bronze match in Kumite). Empty when the format has none.
	Consolation Level
}

// KumiteSequence returns the standard elimination progression for Kumite
// categories. The bronze level is listed as consolation; whether it is
// actually played is a format policy decision.
func KumiteSequence() LevelSequence {
	return LevelSequence{
		Main:        []Level{LevelPreliminary, LevelQuarterfinal, LevelSemifinal, LevelFinal},
		Consolation: LevelBronze,
	}
}

// KataSequence returns the standard judged progression for Kata categories.
// The Final 4 is terminal; there is no advancement past it.
func KataSequence() LevelSequence {
	return LevelSequence{
		Main: []Level{LevelFirstRound, LevelSecondRound, LevelFinalFour},
	}
}

// Index returns the position of l in the main progression, or -1 when l is
// not a main level (consolation levels are parallel, not ordered).
func (s LevelSequence) Index(l Level) int {
	for i, lvl := range s.Main {
		if lvl == l {
			return i
		}
	}
	return -1
}

// Next returns the main level that follows l and true, or false when l is
// terminal, a consolation level, or unknown to this sequence.
func (s LevelSequence) Next(l Level) (Level, bool) {
	i := s.Index(l)
	if i < 0 || i >= len(s.Main)-1 {
		return "", false
	}
	return s.Main[i+1], true
}

// Terminal returns the last main level, or the empty Level for an empty
// sequence.
func (s LevelSequence) Terminal() Level {
	if len(s.Main) == 0 {
		return ""
	}
	return s.Main[len(s.Main)-1]
}

// IsTerminal reports whether l is the final main level of the sequence.
func (s LevelSequence) IsTerminal(l Level) bool { return l != "" && l == s.Terminal() }

// Contains reports whether l is part of the sequence, consolation included.
func (s LevelSequence) Contains(l Level) bool {
	return s.Index(l) >= 0 || (s.Consolation != "" && l == s.Consolation)
}

// PublishIndex returns the position of l in publication order: main
// levels in progression order, the consolation level after the terminal
// one, anything unknown last.
func (s LevelSequence) PublishIndex(l Level) int {
	if i := s.Index(l); i >= 0 {
		return i
	}
	if s.Consolation != "" && l == s.Consolation {
		return len(s.Main)
	}
	return len(s.Main) + 1
}

// KindFor returns the comparator kind RoundRanker should use for l:
// terminal for the placement round, default everywhere else.
func (s LevelSequence) KindFor(l Level) RoundKind {
	if s.IsTerminal(l) {
		return RoundKindTerminal
	}
	return RoundKindDefault
}
