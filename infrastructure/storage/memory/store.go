// Package memory provides an in-memory implementation of the persistence
// ports, used by tests and the tournament simulator.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ahrav/go-shiai/internal/domain"
	"github.com/ahrav/go-shiai/internal/ports"
)

var (
	_ ports.EntryStore  = (*Store)(nil)
	_ ports.ReportStore = (*Store)(nil)
)

// Store keeps categories, performances, matches, and reports in
// mutex-guarded maps. Reads hand out copies, so callers get snapshot
// semantics: computed results never leak back into the store except
// through explicit Put calls. Report writes replace the prior report
// wholesale (last writer wins).
type Store struct {
	mu           sync.RWMutex
	categories   map[string]domain.Category
	performances map[string]*domain.Performance
	matches      map[string]*domain.Match
	reports      map[string]domain.Report
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		categories:   make(map[string]domain.Category),
		performances: make(map[string]*domain.Performance),
		matches:      make(map[string]*domain.Match),
		reports:      make(map[string]domain.Report),
	}
}

// PutCategory inserts or replaces a category.
func (s *Store) PutCategory(ctx context.Context, category domain.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[category.ID] = category
	return nil
}

// Categories implements ports.EntryStore.
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Category implements ports.EntryStore.
func (s *Store) Category(ctx context.Context, categoryID string) (domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return domain.Category{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[categoryID]
	if !ok {
		return domain.Category{}, &ports.StoreError{Operation: "category", Key: categoryID, Err: ports.ErrNotFound}
	}
	return c, nil
}

// EntitiesAtLevel implements ports.EntryStore. Entities come back sorted
// by their registration order so callers see a stable snapshot.
func (s *Store) EntitiesAtLevel(ctx context.Context, categoryID string, level domain.Level) ([]domain.ScoredEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[categoryID]
	if !ok {
		return nil, &ports.StoreError{Operation: "entities_at_level", Key: categoryID, Err: ports.ErrNotFound}
	}

	var out []domain.ScoredEntity
	if category.Discipline.IsKumite() {
		for _, m := range s.matches {
			if m.CategoryID == categoryID && m.Level == level {
				out = append(out, cloneMatch(m))
			}
		}
	} else {
		for _, p := range s.performances {
			if p.CategoryID == categoryID && p.Level == level {
				out = append(out, clonePerformance(p))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seed() != out[j].Seed() {
			return out[i].Seed() < out[j].Seed()
		}
		return out[i].EntityID() < out[j].EntityID()
	})
	return out, nil
}

// PutPerformances implements ports.EntryStore.
func (s *Store) PutPerformances(ctx context.Context, performances []*domain.Performance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range performances {
		if p.ID == "" {
			return &ports.StoreError{Operation: "put_performances", Err: fmt.Errorf("missing performance ID")}
		}
		s.performances[p.ID] = clonePerformance(p)
	}
	return nil
}

// PutMatches implements ports.EntryStore.
func (s *Store) PutMatches(ctx context.Context, matches []*domain.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range matches {
		if m.ID == "" {
			return &ports.StoreError{Operation: "put_matches", Err: fmt.Errorf("missing match ID")}
		}
		s.matches[m.ID] = cloneMatch(m)
	}
	return nil
}

// SaveReport implements ports.ReportStore.
func (s *Store) SaveReport(ctx context.Context, report domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.CategoryID] = report
	return nil
}

// Report implements ports.ReportStore.
func (s *Store) Report(ctx context.Context, categoryID string) (domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[categoryID]
	if !ok {
		return domain.Report{}, &ports.StoreError{Operation: "report", Key: categoryID, Err: ports.ErrNotFound}
	}
	return r, nil
}

func clonePerformance(p *domain.Performance) *domain.Performance {
	cp := *p
	cp.JudgeScores = append([]float64(nil), p.JudgeScores...)
	if p.Breakdown != nil {
		bd := *p.Breakdown
		bd.Middles = append([]float64(nil), p.Breakdown.Middles...)
		cp.Breakdown = &bd
	}
	return &cp
}

func cloneMatch(m *domain.Match) *domain.Match {
	cm := *m
	cm.Participants = append([]domain.ParticipantScore(nil), m.Participants...)
	return &cm
}
