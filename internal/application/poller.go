package application

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-shiai/internal/ports"
	"github.com/ahrav/go-shiai/pkg/logger"
)

// PollerConfig configures the refresh loop.
type PollerConfig struct {
	// Interval is the period between automatic refresh cycles.
	Interval time.Duration `validate:"required,min=1s"`

	// MaxRefreshRate caps how many refresh cycles per second may run,
	// counting both interval ticks and explicit triggers. Bursts of user
	// action collapse into at most this rate; skipped cycles are caught
	// up by the next allowed one, which is safe because every refresh
	// recomputes from the latest state.
	MaxRefreshRate rate.Limit `validate:"required,gt=0"`
}

// DefaultPollerConfig returns a five second interval capped at one
// refresh cycle per second.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:       5 * time.Second,
		MaxRefreshRate: 1,
	}
}

// Poller drives a Refresher on an interval and on explicit triggers,
// standing in for the UI refresh timers of a live scoreboard. It owns no
// tournament state: every cycle is a full recomputation by the Refresher.
type Poller struct {
	config    PollerConfig
	refresher ports.Refresher
	limiter   *rate.Limiter
	trigger   chan struct{}
	log       logger.Logger
}

// NewPoller creates a Poller around the given refresher.
func NewPoller(config PollerConfig, refresher ports.Refresher, log logger.Logger) (*Poller, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if refresher == nil {
		return nil, fmt.Errorf("refresher is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Poller{
		config:    config,
		refresher: refresher,
		limiter:   rate.NewLimiter(config.MaxRefreshRate, 1),
		trigger:   make(chan struct{}, 1),
		log:       log.Named("poller"),
	}, nil
}

// Trigger requests an immediate refresh cycle, as a user action would.
// Multiple pending triggers coalesce into one cycle.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run loops until the context is canceled, refreshing on every interval
// tick and every trigger. Refresh errors are logged and the loop
// continues; a failed cycle is retried by the next one.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-p.trigger:
		}

		if !p.limiter.Allow() {
			continue
		}
		if err := p.refresher.RefreshAll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Error(ctx, "refresh cycle failed", logger.Error(err))
		}
	}
}
