package ports

import (
	"context"

	"github.com/ahrav/go-shiai/internal/domain"
)

// Refresher is the poll-cycle entry point: recompute a category's derived
// state from the latest snapshot and regenerate its report. It must be
// safe to invoke repeatedly and concurrently; every call is a full
// "regenerate from latest known state", never an incremental merge.
// Middleware decorates this interface for metrics and tracing.
type Refresher interface {
	// RefreshCategory runs one poll cycle for a single category and
	// returns the regenerated report.
	RefreshCategory(ctx context.Context, categoryID string) (domain.Report, error)

	// RefreshAll runs a poll cycle for every known category.
	RefreshAll(ctx context.Context) error
}
