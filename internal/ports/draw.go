package ports

import (
	"context"

	"github.com/ahrav/go-shiai/internal/domain"
)

// Draw is the set of next-level entities produced by a generator. Exactly
// one of the slices is populated, matching the category's discipline.
type Draw struct {
	// Performances holds the next Kata round's entries.
	Performances []*domain.Performance

	// Matches holds the next Kumite level's pairings.
	Matches []*domain.Match
}

// Empty reports whether the draw produced no entities.
func (d Draw) Empty() bool { return len(d.Performances) == 0 && len(d.Matches) == 0 }

// DrawRole tells a generator which side of the bracket a draw feeds.
// Level names are format configuration, so the role travels explicitly
// instead of being inferred from the level's name.
type DrawRole string

const (
	// DrawMain feeds the next main-progression level: the winning sides of
	// the advancing matches for Kumite, the top ranks for Kata.
	DrawMain DrawRole = "main"

	// DrawConsolation feeds the consolation level from the losing sides of
	// the advancing matches.
	DrawConsolation DrawRole = "consolation"
)

// DrawGenerator produces the entities of a level from the ranked entities
// that advanced into it. Seeding strategy is the generator's business; the
// core only decides when a generator may run and what it is fed.
type DrawGenerator interface {
	// Generate builds the entities for level from advancing, which arrives
	// in rank order (winners of the prior level for Kumite, top of the
	// ranking for Kata). The role selects which side of each advancing
	// match feeds the draw. The returned entities must carry fresh IDs,
	// the target level, and stable Order values.
	Generate(ctx context.Context, category domain.Category, level domain.Level, role DrawRole, advancing []domain.ScoredEntity) (Draw, error)
}
