// Package drawgen provides a simple rank-order draw generator. It exists
// so the engine has a working collaborator for simulations and tests;
// production seeding strategies replace it behind the ports.DrawGenerator
// interface.
package drawgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahrav/go-shiai/internal/domain"
	"github.com/ahrav/go-shiai/internal/ports"
)

var _ ports.DrawGenerator = (*Sequential)(nil)

// Sequential pairs advancing entities in rank order: first versus second,
// third versus fourth, and so on. An odd advancing set gives the last
// entity a bye. It is stateless and safe for concurrent use.
type Sequential struct{}

// NewSequential creates a Sequential draw generator.
func NewSequential() *Sequential { return &Sequential{} }

// Generate implements ports.DrawGenerator. For Kumite levels it extracts
// the winning sides of the advancing matches (the losing sides for a
// consolation draw) and pairs them; for Kata rounds it creates fresh
// unscored performances in rank order.
func (s *Sequential) Generate(ctx context.Context, category domain.Category, level domain.Level, role ports.DrawRole, advancing []domain.ScoredEntity) (ports.Draw, error) {
	if err := ctx.Err(); err != nil {
		return ports.Draw{}, err
	}
	if len(advancing) == 0 {
		return ports.Draw{}, fmt.Errorf("%w: no advancing entities for level %s", ports.ErrDrawRejected, level)
	}

	switch advancing[0].(type) {
	case *domain.Match:
		return s.drawMatches(category, level, role, advancing)
	case *domain.Performance:
		return s.drawPerformances(category, level, advancing)
	default:
		return ports.Draw{}, fmt.Errorf("%w: unsupported entity type", ports.ErrDrawRejected)
	}
}

func (s *Sequential) drawMatches(category domain.Category, level domain.Level, role ports.DrawRole, advancing []domain.ScoredEntity) (ports.Draw, error) {
	consolation := role == ports.DrawConsolation

	var competitors []string
	for _, entity := range advancing {
		m, ok := entity.(*domain.Match)
		if !ok {
			return ports.Draw{}, fmt.Errorf("%w: mixed entity types", ports.ErrDrawRejected)
		}
		if consolation {
			if l, ok := m.Loser(); ok {
				competitors = append(competitors, l.CompetitorID)
			}
			continue
		}
		w, ok := m.Winner()
		if !ok {
			// Unresolved matches were already excluded by ranking; seeing
			// one here means the caller skipped the progression engine.
			return ports.Draw{}, fmt.Errorf("%w: match %s has no winner", ports.ErrDrawRejected, m.ID)
		}
		competitors = append(competitors, w.CompetitorID)
	}
	if len(competitors) == 0 {
		return ports.Draw{}, fmt.Errorf("%w: no competitors for level %s", ports.ErrDrawRejected, level)
	}

	draw := ports.Draw{}
	for i := 0; i < len(competitors); i += 2 {
		match := &domain.Match{
			ID:         uuid.NewString(),
			CategoryID: category.ID,
			Level:      level,
			Status:     domain.MatchScheduled,
			Order:      i / 2,
		}
		if i+1 < len(competitors) {
			match.Participants = []domain.ParticipantScore{
				{CompetitorID: competitors[i]},
				{CompetitorID: competitors[i+1]},
			}
		} else {
			// Bye: a single participant advances without play.
			match.Participants = []domain.ParticipantScore{
				{CompetitorID: competitors[i], Outcome: domain.OutcomeWin},
			}
			match.Status = domain.MatchCompleted
			match.WinnerID = competitors[i]
		}
		draw.Matches = append(draw.Matches, match)
	}
	return draw, nil
}

func (s *Sequential) drawPerformances(category domain.Category, level domain.Level, advancing []domain.ScoredEntity) (ports.Draw, error) {
	draw := ports.Draw{}
	for i, entity := range advancing {
		p, ok := entity.(*domain.Performance)
		if !ok {
			return ports.Draw{}, fmt.Errorf("%w: mixed entity types", ports.ErrDrawRejected)
		}
		draw.Performances = append(draw.Performances, &domain.Performance{
			ID:           uuid.NewString(),
			CompetitorID: p.CompetitorID,
			CategoryID:   category.ID,
			Level:        level,
			Order:        i,
		})
	}
	return draw, nil
}
