// Package ports defines the interfaces that connect the round-progression
// core to its external collaborators: persistence, draw generation, and
// observability. These interfaces enable dependency inversion and make the
// engine testable without infrastructure.
package ports

import (
	"context"

	"github.com/ahrav/go-shiai/internal/domain"
)

// EntryStore is the persistence/query collaborator for performances and
// matches. The core only ever reads whole per-level snapshots and writes
// back derived values; joins and normalization live behind this interface.
type EntryStore interface {
	// Categories returns every category known to the store.
	Categories(ctx context.Context) ([]domain.Category, error)

	// Category returns a single category by ID.
	// Returns ErrNotFound when the category does not exist.
	Category(ctx context.Context, categoryID string) (domain.Category, error)

	// EntitiesAtLevel returns the performances or matches of one level of
	// one category, depending on the category's discipline. An empty slice
	// means the level has not started; it is not an error.
	EntitiesAtLevel(ctx context.Context, categoryID string, level domain.Level) ([]domain.ScoredEntity, error)

	// PutPerformances inserts or replaces performances, keyed by ID.
	// Used to persist draw output and recomputed score breakdowns.
	PutPerformances(ctx context.Context, performances []*domain.Performance) error

	// PutMatches inserts or replaces matches, keyed by ID.
	PutMatches(ctx context.Context, matches []*domain.Match) error
}

// ReportStore persists the derived report artifact per category. Writes
// replace the prior report wholesale; last writer wins, which is safe
// because regeneration is idempotent for identical snapshots.
type ReportStore interface {
	// SaveReport replaces the category's report with the given one.
	SaveReport(ctx context.Context, report domain.Report) error

	// Report returns the current report for a category.
	// Returns ErrNotFound when none has been generated yet.
	Report(ctx context.Context, categoryID string) (domain.Report, error)
}
