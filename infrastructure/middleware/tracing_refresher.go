package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-shiai/internal/domain"
	"github.com/ahrav/go-shiai/internal/ports"
)

var _ ports.Refresher = (*TracingRefresher)(nil)

// TracingRefresher wraps a Refresher with OpenTelemetry spans. This
// stateless middleware follows the decorator pattern: the wrapped
// refresher does all the work, the decorator only records what happened.
type TracingRefresher struct {
	next ports.Refresher
}

// NewTracingRefresher creates a TracingRefresher around next.
func NewTracingRefresher(next ports.Refresher) *TracingRefresher {
	if next == nil {
		panic("tracing refresher: next refresher is required")
	}
	return &TracingRefresher{next: next}
}

// startSpan creates a new OpenTelemetry span with common attributes.
func (tr *TracingRefresher) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("tournament-refresher")
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

// RefreshCategory implements ports.Refresher.
func (tr *TracingRefresher) RefreshCategory(ctx context.Context, categoryID string) (domain.Report, error) {
	ctx, span := tr.startSpan(ctx, "refresh_category",
		attribute.String("category.id", categoryID),
	)
	defer span.End()

	rep, err := tr.next.RefreshCategory(ctx, categoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return rep, err
	}
	span.SetAttributes(
		attribute.String("report.id", rep.ID),
		attribute.Int("report.rounds", len(rep.Rounds)),
		attribute.Bool("report.final_rankings", len(rep.FinalRankings) > 0),
	)
	span.SetStatus(codes.Ok, "")
	return rep, nil
}

// RefreshAll implements ports.Refresher.
func (tr *TracingRefresher) RefreshAll(ctx context.Context) error {
	ctx, span := tr.startSpan(ctx, "refresh_all")
	defer span.End()

	if err := tr.next.RefreshAll(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
