package domain

// Discipline distinguishes judged (Kata) from head-to-head elimination
// (Kumite) categories, individually or in teams. Engines dispatch on the
// discipline's kind, never on raw strings.
type Discipline string

const (
	DisciplineKata       Discipline = "kata"
	DisciplineTeamKata   Discipline = "team_kata"
	DisciplineKumite     Discipline = "kumite"
	DisciplineTeamKumite Discipline = "team_kumite"
)

// IsKata reports whether the discipline is judged by score panels.
func (d Discipline) IsKata() bool {
	return d == DisciplineKata || d == DisciplineTeamKata
}

// IsKumite reports whether the discipline is decided by elimination matches.
func (d Discipline) IsKumite() bool {
	return d == DisciplineKumite || d == DisciplineTeamKumite
}

// Valid reports whether d is one of the known disciplines.
func (d Discipline) Valid() bool { return d.IsKata() || d.IsKumite() }

// Category groups the performances or matches of one competition class.
// A category owns its rounds; its discipline determines which level
// sequence and which engine apply.
type Category struct {
	// ID is the stable identifier used to key entities and reports.
	ID string `json:"id"`

	// Name is the human-readable label (e.g. "Male Kumite -75kg").
	Name string `json:"name"`

	// Discipline selects the Kata or Kumite engine for this category.
	Discipline Discipline `json:"discipline"`
}

// Sequence returns the level progression for the category's discipline.
func (c Category) Sequence() LevelSequence {
	if c.Discipline.IsKumite() {
		return KumiteSequence()
	}
	return KataSequence()
}
