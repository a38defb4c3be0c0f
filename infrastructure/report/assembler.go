// Package report implements assembly of the per-category, round-by-round
// publication report.
package report

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-shiai/internal/domain"
)

var validate = validator.New()

var _ domain.ReportAssembler = (*Assembler)(nil)

// Config defines report assembly policy.
type Config struct {
	// BronzePolicy mirrors the progression engine's policy so final
	// rankings and advancement agree on how third place is awarded.
	BronzePolicy domain.BronzePolicy `yaml:"bronze_policy" validate:"required,oneof=shared playoff"`

	// PodiumPlaces is the highest place included in final rankings.
	PodiumPlaces int `yaml:"podium_places" validate:"required,min=1"`
}

// DefaultConfig returns the standard podium: places one through three,
// shared bronze.
func DefaultConfig() Config {
	return Config{
		BronzePolicy: domain.BronzeShared,
		PodiumPlaces: 3,
	}
}

// Assembler builds the full report document from a snapshot of a
// category's rounds. Assembly is deterministic and free of side effects:
// the same snapshot always yields a byte-for-byte identical report, which
// makes stored regeneration idempotent. The prior report is always
// replaced wholesale; nothing is ever merged.
type Assembler struct {
	config Config
	ranker domain.RoundRanker
	engine domain.ProgressionEngine
}

// NewAssembler creates an Assembler sharing the engine's ranking and
// advancement logic so report contents match progression decisions.
func NewAssembler(config Config, ranker domain.RoundRanker, engine domain.ProgressionEngine) (*Assembler, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if ranker == nil || engine == nil {
		return nil, fmt.Errorf("ranker and engine are required")
	}
	return &Assembler{config: config, ranker: ranker, engine: engine}, nil
}

// Build implements domain.ReportAssembler.
func (a *Assembler) Build(category domain.Category, rounds []domain.RoundSnapshot) (domain.Report, error) {
	seq := category.Sequence()

	ordered := make([]domain.RoundSnapshot, 0, len(rounds))
	for _, rs := range rounds {
		if !seq.Contains(rs.Level) {
			return domain.Report{}, fmt.Errorf("%w: %s", domain.ErrUnknownLevel, rs.Level)
		}
		if len(rs.AtLevel) == 0 {
			continue
		}
		ordered = append(ordered, rs)
	}
	// Main levels in progression order; the consolation level publishes
	// last.
	slices.SortStableFunc(ordered, func(x, y domain.RoundSnapshot) int {
		return seq.PublishIndex(x.Level) - seq.PublishIndex(y.Level)
	})

	var roundReports []domain.RoundReport
	for _, rs := range ordered {
		rr, err := a.buildRound(seq, rs)
		if err != nil {
			return domain.Report{}, err
		}
		roundReports = append(roundReports, rr)
	}

	final, err := a.finalRankings(category, seq, ordered)
	if err != nil {
		return domain.Report{}, err
	}

	fp, err := domain.ReportFingerprint(category.ID, roundReports, final)
	if err != nil {
		return domain.Report{}, err
	}

	return domain.Report{
		ID:            "report_" + fp[:16],
		CategoryID:    category.ID,
		Fingerprint:   fp,
		Rounds:        roundReports,
		FinalRankings: final,
	}, nil
}

// buildRound ranks one round and derives its advanced subset. The
// advanced list is only published once the round is closed; until then
// nothing has fed the next round.
func (a *Assembler) buildRound(seq domain.LevelSequence, rs domain.RoundSnapshot) (domain.RoundReport, error) {
	ranking, err := a.ranker.Rank(rs.AtLevel, seq.KindFor(rs.Level))
	if err != nil {
		return domain.RoundReport{}, fmt.Errorf("ranking round %s: %w", rs.Level, err)
	}

	rr := domain.RoundReport{
		RoundName: rs.Level,
		Results:   make([]domain.RankedResult, 0, len(ranking.Ordered)),
	}
	for i, entity := range ranking.Ordered {
		result := domain.RankedResult{
			Position:  i + 1,
			EntityRef: entity.EntityID(),
			Label:     entityLabel(entity),
		}
		if score, ok := entity.FinalScore(); ok {
			s := score
			result.Score = &s
		}
		if place, ok := entity.Placement(); ok {
			result.Place = place
		}
		rr.Results = append(rr.Results, result)
	}
	for _, ex := range ranking.Excluded {
		rr.Warnings = append(rr.Warnings, fmt.Sprintf("%s excluded: %v", ex.Entity.EntityID(), ex.Reason))
	}

	if a.engine.IsLevelClosed(seq, rs.Level, rs.AtLevel, rs.AtNext) {
		advancing, err := a.engine.AdvancingSet(seq, rs.Level, rs.AtLevel)
		if err != nil {
			return domain.RoundReport{}, err
		}
		for _, entity := range advancing.Ordered {
			rr.Advanced = append(rr.Advanced, advancedRef(entity)...)
		}
	}

	return rr, nil
}

// finalRankings produces the podium once the terminal round is closed.
// Kata places come from explicit placements (falling back to rank
// position); Kumite places derive from the final, semifinal, and, under
// the playoff policy, bronze matches.
func (a *Assembler) finalRankings(category domain.Category, seq domain.LevelSequence, rounds []domain.RoundSnapshot) ([]domain.FinalRanking, error) {
	terminal := findRound(rounds, seq.Terminal())
	if terminal == nil || !a.engine.IsLevelClosed(seq, terminal.Level, terminal.AtLevel, terminal.AtNext) {
		return nil, nil
	}

	if category.Discipline.IsKata() {
		return a.kataPodium(seq, *terminal)
	}
	return a.kumitePodium(seq, rounds, *terminal)
}

func (a *Assembler) kataPodium(seq domain.LevelSequence, terminal domain.RoundSnapshot) ([]domain.FinalRanking, error) {
	ranking, err := a.ranker.Rank(terminal.AtLevel, domain.RoundKindTerminal)
	if err != nil {
		return nil, err
	}

	var podium []domain.FinalRanking
	for i, entity := range ranking.Ordered {
		place, ok := entity.Placement()
		if !ok {
			place = i + 1
		}
		if place > a.config.PodiumPlaces {
			continue
		}
		podium = append(podium, domain.FinalRanking{
			Place:     place,
			EntityRef: entity.EntityID(),
			Label:     entityLabel(entity),
		})
	}
	return podium, nil
}

func (a *Assembler) kumitePodium(seq domain.LevelSequence, rounds []domain.RoundSnapshot, terminal domain.RoundSnapshot) ([]domain.FinalRanking, error) {
	finalMatch := singleResolvedMatch(terminal.AtLevel)
	if finalMatch == nil {
		return nil, nil
	}

	var podium []domain.FinalRanking
	if w, ok := finalMatch.Winner(); ok {
		podium = append(podium, domain.FinalRanking{Place: 1, EntityRef: finalMatch.ID, Label: w.CompetitorID})
	}
	if l, ok := finalMatch.Loser(); ok {
		podium = append(podium, domain.FinalRanking{Place: 2, EntityRef: finalMatch.ID, Label: l.CompetitorID})
	}

	switch a.config.BronzePolicy {
	case domain.BronzePlayoff:
		bronze := findRound(rounds, seq.Consolation)
		if bronze != nil {
			if m := singleResolvedMatch(bronze.AtLevel); m != nil {
				if w, ok := m.Winner(); ok {
					podium = append(podium, domain.FinalRanking{Place: 3, EntityRef: m.ID, Label: w.CompetitorID})
				}
			}
		}
	case domain.BronzeShared:
		semi := findRound(rounds, semifinalLevel(seq))
		if semi != nil {
			for _, entity := range semi.AtLevel {
				m, ok := entity.(*domain.Match)
				if !ok {
					continue
				}
				if l, ok := m.Loser(); ok {
					podium = append(podium, domain.FinalRanking{Place: 3, EntityRef: m.ID, Label: l.CompetitorID})
				}
			}
		}
	}
	return podium, nil
}

// semifinalLevel returns the level directly before the terminal one.
func semifinalLevel(seq domain.LevelSequence) domain.Level {
	if len(seq.Main) < 2 {
		return ""
	}
	return seq.Main[len(seq.Main)-2]
}

// singleResolvedMatch returns the only resolvable completed match of a
// level, typically the final or bronze match. Ambiguity yields nil.
func singleResolvedMatch(entities []domain.ScoredEntity) *domain.Match {
	var found *domain.Match
	for _, entity := range entities {
		m, ok := entity.(*domain.Match)
		if !ok || m.Resolve() != nil || m.Status != domain.MatchCompleted {
			continue
		}
		if found != nil {
			return nil
		}
		found = m
	}
	return found
}

func findRound(rounds []domain.RoundSnapshot, level domain.Level) *domain.RoundSnapshot {
	if level == "" {
		return nil
	}
	for i := range rounds {
		if rounds[i].Level == level {
			return &rounds[i]
		}
	}
	return nil
}

// entityLabel renders the human-readable line for an entity.
func entityLabel(entity domain.ScoredEntity) string {
	switch e := entity.(type) {
	case *domain.Performance:
		return e.CompetitorID
	case *domain.Match:
		if e.Bye() {
			return e.Participants[0].CompetitorID + " (bye)"
		}
		if len(e.Participants) == 2 {
			return e.Participants[0].CompetitorID + " vs " + e.Participants[1].CompetitorID
		}
	}
	return entity.EntityID()
}

// advancedRef returns the competitor IDs an entity feeds forward: the
// winner for a match, the competitor for a performance.
func advancedRef(entity domain.ScoredEntity) []string {
	switch e := entity.(type) {
	case *domain.Performance:
		return []string{e.CompetitorID}
	case *domain.Match:
		if w, ok := e.Winner(); ok {
			return []string{w.CompetitorID}
		}
	}
	return nil
}
