// Package bracket implements the level progression state machine: when a
// level counts as closed and when the next level may be drawn.
package bracket

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-shiai/internal/domain"
)

var validate = validator.New()

var _ domain.ProgressionEngine = (*Engine)(nil)

// Config defines the advancement parameters of the progression engine.
type Config struct {
	// AdvanceCounts maps a level to the number of ranked entities that
	// advance into it from the prior round. Only consulted for judged
	// (Kata) rounds; Kumite advancement is always the set of winners.
	AdvanceCounts map[domain.Level]int `yaml:"advance_counts" validate:"dive,min=1"`

	// BronzePolicy selects shared versus played-off third place. Only the
	// playoff policy makes the engine emit a consolation set.
	BronzePolicy domain.BronzePolicy `yaml:"bronze_policy" validate:"required,oneof=shared playoff"`
}

// DefaultConfig returns the standard tournament parameters: eight entries
// in the second Kata round, four in the Final 4, shared bronze.
func DefaultConfig() Config {
	return Config{
		AdvanceCounts: map[domain.Level]int{
			domain.LevelSecondRound: 8,
			domain.LevelFinalFour:   4,
		},
		BronzePolicy: domain.BronzeShared,
	}
}

// Engine is the state machine over a category's levels. It holds only
// immutable configuration, computes over the snapshot each call is handed,
// and is therefore safe to invoke repeatedly and concurrently. It never
// mutates entities or stores; callers persist what it authorizes.
type Engine struct {
	config Config
	ranker domain.RoundRanker
}

// NewEngine creates an Engine using the given ranker for advancement
// ordering.
func NewEngine(config Config, ranker domain.RoundRanker) (*Engine, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if ranker == nil {
		return nil, fmt.Errorf("ranker is required")
	}
	return &Engine{config: config, ranker: ranker}, nil
}

// LevelState implements domain.ProgressionEngine.
func (e *Engine) LevelState(seq domain.LevelSequence, level domain.Level, atLevel, atNext []domain.ScoredEntity) domain.LevelState {
	// The next level existing absorbs the state: advancement already
	// happened and nothing at this level is actionable anymore.
	if len(atNext) > 0 {
		return domain.LevelClosed
	}
	if len(atLevel) == 0 {
		return domain.LevelNotStarted
	}
	for _, entity := range atLevel {
		if !entity.Terminal() {
			return domain.LevelOpen
		}
	}
	return domain.LevelClosed
}

// IsLevelClosed implements domain.ProgressionEngine. It is monotonic:
// once the next level's entities exist it stays true no matter what else
// changes at the prior level.
func (e *Engine) IsLevelClosed(seq domain.LevelSequence, level domain.Level, atLevel, atNext []domain.ScoredEntity) bool {
	return e.LevelState(seq, level, atLevel, atNext) == domain.LevelClosed
}

// Advancement implements domain.ProgressionEngine.
//
// A mixed level (some entities terminal, some not) simply comes back
// unauthorized; callers retry on the next poll. A terminal level is never
// authorized: the engine's job ends at producing final placements. The
// advancing set is the ranked winners for Kumite and the configured top-N
// for Kata; entities with unresolvable terminal data are excluded, not
// guessed at. A level whose every entity was excluded is not authorized:
// there is nothing to draw from.
func (e *Engine) Advancement(seq domain.LevelSequence, level domain.Level, atLevel, atNext []domain.ScoredEntity) (domain.Advancement, error) {
	adv := domain.Advancement{Level: level}

	if !seq.Contains(level) {
		return adv, fmt.Errorf("%w: %s", domain.ErrUnknownLevel, level)
	}

	next, hasNext := seq.Next(level)
	if !hasNext {
		return adv, nil
	}
	adv.Next = next

	if len(atLevel) == 0 || len(atNext) > 0 {
		return adv, nil
	}
	for _, entity := range atLevel {
		if !entity.Terminal() {
			return adv, nil
		}
	}

	advancing, err := e.AdvancingSet(seq, level, atLevel)
	if err != nil {
		return adv, err
	}
	adv.Advancing = advancing.Ordered
	adv.Excluded = advancing.Excluded
	if len(adv.Advancing) == 0 {
		// Every entity was excluded. Nothing can be drawn from an empty
		// set, so the level stays unauthorized and the exclusions surface
		// as warnings instead of a draw rejection on every poll.
		return adv, nil
	}
	if _, isMatch := atLevel[0].(*domain.Match); isMatch &&
		e.config.BronzePolicy == domain.BronzePlayoff &&
		seq.Consolation != "" && next == seq.Terminal() {
		// The bronze playoff is drawn from the same semifinal matches;
		// the generator extracts the losing sides.
		adv.Consolation = advancing.Ordered
	}

	adv.Authorized = true
	return adv, nil
}

// AdvancingSet implements domain.ProgressionEngine. For Kumite the set is
// every resolvable completed match, in rank order (the draw generator
// extracts the winning sides); for Kata it is the configured top-N of the
// round's ranking. Terminal levels advance nothing.
func (e *Engine) AdvancingSet(seq domain.LevelSequence, level domain.Level, atLevel []domain.ScoredEntity) (domain.Ranking, error) {
	next, hasNext := seq.Next(level)
	if !hasNext || len(atLevel) == 0 {
		return domain.Ranking{}, nil
	}

	ranking, err := e.ranker.Rank(atLevel, seq.KindFor(level))
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("ranking level %s: %w", level, err)
	}

	switch atLevel[0].(type) {
	case *domain.Match:
		return ranking, nil
	case *domain.Performance:
		n := e.config.AdvanceCounts[next]
		if n <= 0 || n > len(ranking.Ordered) {
			n = len(ranking.Ordered)
		}
		ranking.Ordered = ranking.Ordered[:n]
		return ranking, nil
	default:
		return domain.Ranking{}, fmt.Errorf("unsupported entity type at level %s", level)
	}
}
