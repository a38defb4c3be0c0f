// Package ranking implements the round ranking comparators: the default
// score ordering and the terminal placement ordering.
package ranking

import (
	"slices"

	"github.com/ahrav/go-shiai/internal/domain"
)

var _ domain.RoundRanker = (*Ranker)(nil)

// Ranker orders the entities of one round into a deterministic total
// order. It is stateless and safe for concurrent use.
type Ranker struct{}

// NewRanker creates a Ranker.
func NewRanker() *Ranker { return &Ranker{} }

// Rank implements domain.RoundRanker.
//
// Entities that fail Resolve are moved to the Excluded list and the rest
// of the round is ranked normally; a single bad entity never aborts the
// round. An empty input yields an empty ranking. Unknown kinds are caller
// misuse and fail the whole call with ErrUnknownRoundKind.
func (r *Ranker) Rank(entities []domain.ScoredEntity, kind domain.RoundKind) (domain.Ranking, error) {
	var cmp func(a, b domain.ScoredEntity) int
	switch kind {
	case domain.RoundKindDefault:
		cmp = compareDefault
	case domain.RoundKindTerminal:
		cmp = compareTerminal
	default:
		return domain.Ranking{}, domain.ErrUnknownRoundKind
	}

	ranking := domain.Ranking{Ordered: make([]domain.ScoredEntity, 0, len(entities))}
	for _, e := range entities {
		if err := e.Resolve(); err != nil {
			ranking.Excluded = append(ranking.Excluded, domain.Exclusion{Entity: e, Reason: err})
			continue
		}
		ranking.Ordered = append(ranking.Ordered, e)
	}

	slices.SortStableFunc(ranking.Ordered, cmp)
	return ranking, nil
}

// compareDefault orders scored entities before pending ones, higher scores
// first, and breaks every remaining tie by ascending Seed so equal inputs
// always produce the same total order. Pending entities sink; they are
// never treated as scoring zero.
func compareDefault(a, b domain.ScoredEntity) int {
	sa, okA := a.FinalScore()
	sb, okB := b.FinalScore()

	switch {
	case okA && !okB:
		return -1
	case !okA && okB:
		return 1
	case okA && okB && sa != sb:
		if sa > sb {
			return -1
		}
		return 1
	}
	return a.Seed() - b.Seed()
}

// compareTerminal orders explicitly placed entities first, ascending by
// place; a recorded placement is a judged decision and overrides score
// ordering. Unplaced entities fall back to the default comparator.
func compareTerminal(a, b domain.ScoredEntity) int {
	pa, okA := a.Placement()
	pb, okB := b.Placement()

	switch {
	case okA && !okB:
		return -1
	case !okA && okB:
		return 1
	case okA && okB:
		if pa != pb {
			return pa - pb
		}
		return a.Seed() - b.Seed()
	}
	return compareDefault(a, b)
}
