package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-shiai/internal/domain"
)

type stubRefresher struct {
	report       domain.Report
	err          error
	categoryID   string
	refreshAlls  int
	refreshCalls int
}

func (s *stubRefresher) RefreshCategory(ctx context.Context, categoryID string) (domain.Report, error) {
	s.refreshCalls++
	s.categoryID = categoryID
	return s.report, s.err
}

func (s *stubRefresher) RefreshAll(ctx context.Context) error {
	s.refreshAlls++
	return s.err
}

func TestTracingRefresherDelegates(t *testing.T) {
	stub := &stubRefresher{report: domain.Report{ID: "report_abc", CategoryID: "kata"}}
	tr := NewTracingRefresher(stub)

	rep, err := tr.RefreshCategory(context.Background(), "kata")
	require.NoError(t, err)
	assert.Equal(t, stub.report, rep)
	assert.Equal(t, "kata", stub.categoryID)
	assert.Equal(t, 1, stub.refreshCalls)

	require.NoError(t, tr.RefreshAll(context.Background()))
	assert.Equal(t, 1, stub.refreshAlls)
}

func TestTracingRefresherPropagatesErrors(t *testing.T) {
	wantErr := errors.New("store unavailable")
	tr := NewTracingRefresher(&stubRefresher{err: wantErr})

	_, err := tr.RefreshCategory(context.Background(), "kata")
	assert.ErrorIs(t, err, wantErr)
	assert.ErrorIs(t, tr.RefreshAll(context.Background()), wantErr)
}

func TestNewTracingRefresherRequiresNext(t *testing.T) {
	assert.Panics(t, func() { NewTracingRefresher(nil) })
}

// Prometheus collectors register in the global registry, so the instance
// is created once and exercised across every metric path.
func TestPrometheusMetricsRecording(t *testing.T) {
	pm := NewPrometheusMetrics()

	labels := map[string]string{"category": "kumite-75kg", "discipline": "kumite", "level": "semifinal"}

	assert.NotPanics(t, func() {
		pm.RecordLatency("refresh_category", 25*time.Millisecond, labels)
		pm.RecordCounter("reports_generated_total", 1, labels)
		pm.RecordCounter("levels_drawn_total", 1, labels)
		pm.RecordCounter("entities_excluded_total", 2, labels)
		pm.RecordCounter("draws_requested", 1, labels)
		pm.RecordGauge("open_levels", 3, labels)
	})
}
