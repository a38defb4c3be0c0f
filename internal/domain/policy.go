package domain

// BronzePolicy decides how third place is awarded in Kumite categories.
// The rule is format configuration, not engine logic: federations differ
// on whether a bronze match is played at all.
type BronzePolicy string

const (
	// BronzeShared awards place 3 to both semifinal losers; no bronze
	// match is played and finalRankings carries a duplicated place 3.
	BronzeShared BronzePolicy = "shared"

	// BronzePlayoff generates a Bronze level from the semifinal losers,
	// played in parallel with the Final; its winner takes place 3.
	BronzePlayoff BronzePolicy = "playoff"
)

// Valid reports whether p is a known policy.
func (p BronzePolicy) Valid() bool { return p == BronzeShared || p == BronzePlayoff }
