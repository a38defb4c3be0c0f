package domain

// ScoreAggregator turns one performance's raw judge scores into a
// trimmed-sum breakdown. Implementations are pure: same input, same
// output, no side effects. Persisting the result is the caller's job.
type ScoreAggregator interface {
	// Aggregate removes exactly one instance of the maximum and one of the
	// minimum score, sorts the remainder ascending, and sums it.
	//
	// It returns ErrInsufficientScores (wrapped in a ScoreError) when
	// fewer than MinMiddleScores values would survive trimming, and
	// ErrScoreOutOfRange when any value lies outside the judge bounds.
	// The aggregator rejects computation rather than producing a partial
	// sum; the caller surfaces the condition as "Pending".
	Aggregate(scores []float64) (ScoreBreakdown, error)
}

// RoundRanker produces a deterministic total order over the entities of
// one round.
type RoundRanker interface {
	// Rank orders entities under the comparator selected by kind.
	//
	// RoundKindDefault: scored entities first, by score descending, then
	// ascending Seed. RoundKindTerminal: explicitly placed entities first,
	// by ascending place, the rest under the default comparator.
	//
	// Entities failing Resolve are moved to Ranking.Excluded; they never
	// abort the rest of the round. An empty input yields an empty ranking.
	// An unrecognized kind returns ErrUnknownRoundKind.
	Rank(entities []ScoredEntity, kind RoundKind) (Ranking, error)
}

// ProgressionEngine is the state machine over a category's levels. All
// methods compute over the snapshot they are handed; the engine holds no
// state of its own and is safe for repeated, concurrent invocation.
type ProgressionEngine interface {
	// LevelState classifies a level from its own entities and the next
	// level's. Once atNext is non-empty the level is Closed for good:
	// advancement already happened and re-closing is a no-op.
	LevelState(seq LevelSequence, level Level, atLevel, atNext []ScoredEntity) LevelState

	// IsLevelClosed is LevelState == LevelClosed. It is monotonic in the
	// next level's existence.
	IsLevelClosed(seq LevelSequence, level Level, atLevel, atNext []ScoredEntity) bool

	// Advancement decides whether the next level may be generated now and,
	// when it may, supplies the draw generator its ranked input. A level
	// in mixed state simply comes back unauthorized; that is the normal
	// retried condition, not an error.
	Advancement(seq LevelSequence, level Level, atLevel, atNext []ScoredEntity) (Advancement, error)

	// AdvancingSet computes the entities that advance (or advanced) out of
	// a level, independent of whether the next level exists yet. Report
	// assembly uses it to reconstruct the "advanced" subset of rounds
	// whose successor was already generated.
	AdvancingSet(seq LevelSequence, level Level, atLevel []ScoredEntity) (Ranking, error)
}

// ReportAssembler folds a category's ranked rounds into a Report.
type ReportAssembler interface {
	// Build recomputes the full report from the current round set.
	// Partial regeneration is not supported; callers replace the stored
	// report wholesale with the result.
	Build(category Category, rounds []RoundSnapshot) (Report, error)
}

// RoundSnapshot is the assembler's input for one level: the entities at
// the level and at its successor, as fetched from the same store snapshot.
type RoundSnapshot struct {
	Level   Level
	AtLevel []ScoredEntity
	AtNext  []ScoredEntity
}
