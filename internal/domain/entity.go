package domain

// ScoredEntity is the variant shared by Performances and Matches: anything
// that occupies a slot in a round and can be ranked. Implementations must
// be usable as pure values; none of the methods may mutate the entity.
type ScoredEntity interface {
	// EntityID returns the stable identifier of the entity.
	EntityID() string

	// EntityLevel returns the level the entity belongs to.
	EntityLevel() Level

	// Seed returns the registration order within the round. It is assigned
	// at creation, never changes, and is the final ranking tie-break.
	Seed() int

	// FinalScore returns the entity's final score and true once scoring is
	// complete. Incomplete entities return false and must never be treated
	// as scoring zero.
	FinalScore() (float64, bool)

	// Placement returns the explicitly assigned place (1..4) and true when
	// one has been recorded. Only meaningful in the terminal placement
	// round.
	Placement() (int, bool)

	// Terminal reports whether the entity has reached its terminal state:
	// a completed match or a performance with its final score set.
	Terminal() bool

	// Resolve returns nil when the entity's terminal data is internally
	// consistent, or an invariant-violation error (such as
	// ErrUnresolvedWinner) when it is not. Entities that fail Resolve are
	// excluded from rankings and advancement, not guessed at.
	Resolve() error
}

// Exclusion records an entity dropped from a ranking together with the
// invariant violation that disqualified it. The caller layer surfaces
// these as warnings; they never abort the rest of the round.
type Exclusion struct {
	Entity ScoredEntity
	Reason error
}

// Ranking is the output of ranking one round: a deterministic total order
// over the valid entities plus the entities that had to be excluded.
type Ranking struct {
	// Ordered holds the entities in final rank order, best first.
	Ordered []ScoredEntity

	// Excluded holds entities skipped for invariant violations, in input
	// order.
	Excluded []Exclusion
}

// IDs returns the entity IDs of the ranking in order.
func (r Ranking) IDs() []string {
	ids := make([]string, len(r.Ordered))
	for i, e := range r.Ordered {
		ids[i] = e.EntityID()
	}
	return ids
}

// Advancement is a progression engine's verdict on one level: whether the
// next level may be generated now, and from which entities.
type Advancement struct {
	// Level is the level the decision was computed for.
	Level Level

	// Next is the level that would be generated. Empty when Level is
	// terminal.
	Next Level

	// Authorized is true iff every entity at Level is terminal, the next
	// level's entities do not exist yet, and Level is not terminal.
	Authorized bool

	// Advancing lists the entities feeding the next level, in rank order:
	// match winners for Kumite, the top of the ranking for Kata. Empty
	// unless Authorized.
	Advancing []ScoredEntity

	// Consolation lists the entities feeding a parallel consolation level
	// (semifinal losers for a bronze playoff). Empty unless the format has
	// one and Authorized is true.
	Consolation []ScoredEntity

	// Excluded carries the per-entity invariant violations encountered
	// while computing the advancing set.
	Excluded []Exclusion
}
