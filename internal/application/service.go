package application

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-shiai/internal/domain"
	"github.com/ahrav/go-shiai/internal/ports"
	"github.com/ahrav/go-shiai/pkg/logger"
)

var validate = validator.New()

var _ ports.Refresher = (*TournamentService)(nil)

// ServiceConfig configures the refresh cycle.
type ServiceConfig struct {
	// Format is the tournament format driving sequences, advancement
	// counts, and the bronze policy.
	Format FormatConfig `validate:"required"`

	// RefreshConcurrency bounds how many categories RefreshAll processes
	// in parallel.
	RefreshConcurrency int `validate:"min=1"`
}

// DefaultServiceConfig returns the standard format with four concurrent
// category refreshes.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Format:             DefaultFormatConfig(),
		RefreshConcurrency: 4,
	}
}

// Dependencies carries the collaborators a TournamentService needs.
// Metrics and Log are optional; the rest are required.
type Dependencies struct {
	Entries    ports.EntryStore
	Reports    ports.ReportStore
	Aggregator domain.ScoreAggregator
	Engine     domain.ProgressionEngine
	Assembler  domain.ReportAssembler
	Draws      ports.DrawGenerator
	Metrics    ports.MetricsCollector
	Log        logger.Logger
}

// TournamentService runs the poll cycle the engine was designed for:
// fetch a snapshot, compute pending scores, evaluate advancement, draw
// the next level when authorized, and regenerate the category report.
//
// Every computation is a pure transformation over the fetched snapshot;
// the service only mutates state through explicit store writes. It is
// safe to invoke concurrently from multiple pollers: duplicate refreshes
// of the same data regenerate an identical report, and the stores resolve
// concurrent report writes as last writer wins.
type TournamentService struct {
	config ServiceConfig

	entries    ports.EntryStore
	reports    ports.ReportStore
	aggregator domain.ScoreAggregator
	engine     domain.ProgressionEngine
	assembler  domain.ReportAssembler
	draws      ports.DrawGenerator
	metrics    ports.MetricsCollector
	log        logger.Logger
}

// NewTournamentService creates a TournamentService.
func NewTournamentService(config ServiceConfig, deps Dependencies) (*TournamentService, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if deps.Entries == nil || deps.Reports == nil {
		return nil, fmt.Errorf("entry and report stores are required")
	}
	if deps.Aggregator == nil || deps.Engine == nil || deps.Assembler == nil || deps.Draws == nil {
		return nil, fmt.Errorf("aggregator, engine, assembler, and draw generator are required")
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	return &TournamentService{
		config:     config,
		entries:    deps.Entries,
		reports:    deps.Reports,
		aggregator: deps.Aggregator,
		engine:     deps.Engine,
		assembler:  deps.Assembler,
		draws:      deps.Draws,
		metrics:    deps.Metrics,
		log:        deps.Log.Named("tournament"),
	}, nil
}

// RefreshCategory implements ports.Refresher.
func (s *TournamentService) RefreshCategory(ctx context.Context, categoryID string) (domain.Report, error) {
	start := time.Now()

	category, err := s.entries.Category(ctx, categoryID)
	if err != nil {
		return domain.Report{}, err
	}
	seq := s.config.Format.Sequence(category.Discipline)

	snapshots, err := s.fetchSnapshots(ctx, category, seq)
	if err != nil {
		return domain.Report{}, err
	}

	if category.Discipline.IsKata() {
		if err := s.aggregatePending(ctx, snapshots); err != nil {
			return domain.Report{}, err
		}
	}

	if err := s.advanceLevels(ctx, category, seq, snapshots); err != nil {
		return domain.Report{}, err
	}

	rep, err := s.assembler.Build(category, s.roundSnapshots(seq, snapshots))
	if err != nil {
		return domain.Report{}, fmt.Errorf("assembling report for %s: %w", categoryID, err)
	}
	if err := s.reports.SaveReport(ctx, rep); err != nil {
		return domain.Report{}, err
	}

	labels := map[string]string{"category": categoryID, "discipline": string(category.Discipline)}
	s.metrics.RecordLatency("refresh_category", time.Since(start), labels)
	s.metrics.RecordCounter("reports_generated_total", 1, labels)
	s.log.Debug(ctx, "category refreshed",
		logger.String("category", categoryID),
		logger.String("report", rep.ID))
	return rep, nil
}

// RefreshAll implements ports.Refresher.
func (s *TournamentService) RefreshAll(ctx context.Context) error {
	categories, err := s.entries.Categories(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.RefreshConcurrency)
	for _, category := range categories {
		g.Go(func() error {
			if _, err := s.RefreshCategory(ctx, category.ID); err != nil {
				return fmt.Errorf("refreshing category %s: %w", category.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchSnapshots reads every level of the category in one pass so the
// whole cycle computes over a single coherent snapshot.
func (s *TournamentService) fetchSnapshots(ctx context.Context, category domain.Category, seq domain.LevelSequence) (map[domain.Level][]domain.ScoredEntity, error) {
	levels := make([]domain.Level, 0, len(seq.Main)+1)
	levels = append(levels, seq.Main...)
	if seq.Consolation != "" {
		levels = append(levels, seq.Consolation)
	}

	snapshots := make(map[domain.Level][]domain.ScoredEntity, len(levels))
	for _, level := range levels {
		entities, err := s.entries.EntitiesAtLevel(ctx, category.ID, level)
		if err != nil {
			return nil, err
		}
		snapshots[level] = entities
	}
	return snapshots, nil
}

// aggregatePending computes and persists the trimmed-sum breakdown of
// every performance whose judge panel is complete. Per-entity violations
// (a score out of range) are logged and skipped; they never abort the
// cycle.
func (s *TournamentService) aggregatePending(ctx context.Context, snapshots map[domain.Level][]domain.ScoredEntity) error {
	var updated []*domain.Performance
	for _, entities := range snapshots {
		for _, entity := range entities {
			p, ok := entity.(*domain.Performance)
			if !ok || p.Breakdown != nil || len(p.JudgeScores) < s.config.Format.JudgePanel {
				continue
			}
			breakdown, err := s.aggregator.Aggregate(p.JudgeScores)
			if err != nil {
				s.log.Warn(ctx, "performance skipped",
					logger.String("performance", p.ID),
					logger.Error(err))
				s.metrics.RecordCounter("entities_excluded_total", 1, map[string]string{"category": p.CategoryID})
				continue
			}
			p.Breakdown = &breakdown
			updated = append(updated, p)
		}
	}
	if len(updated) == 0 {
		return nil
	}
	return s.entries.PutPerformances(ctx, updated)
}

// advanceLevels walks the main progression in order and draws the next
// level wherever the engine authorizes it, updating the local snapshot so
// later levels see the newly drawn entities.
func (s *TournamentService) advanceLevels(ctx context.Context, category domain.Category, seq domain.LevelSequence, snapshots map[domain.Level][]domain.ScoredEntity) error {
	for _, level := range seq.Main {
		var atNext []domain.ScoredEntity
		if next, ok := seq.Next(level); ok {
			atNext = snapshots[next]
		}

		adv, err := s.engine.Advancement(seq, level, snapshots[level], atNext)
		if err != nil {
			return fmt.Errorf("evaluating advancement for %s: %w", level, err)
		}
		for _, ex := range adv.Excluded {
			s.log.Warn(ctx, "entity excluded from advancement",
				logger.String("entity", ex.Entity.EntityID()),
				logger.Error(ex.Reason))
			s.metrics.RecordCounter("entities_excluded_total", 1, map[string]string{"category": category.ID})
		}
		if !adv.Authorized {
			continue
		}

		if err := s.drawLevel(ctx, category, adv.Next, ports.DrawMain, adv.Advancing, snapshots); err != nil {
			return err
		}
		if len(adv.Consolation) > 0 && len(snapshots[seq.Consolation]) == 0 {
			if err := s.drawLevel(ctx, category, seq.Consolation, ports.DrawConsolation, adv.Consolation, snapshots); err != nil {
				return err
			}
		}
	}
	return nil
}

// drawLevel invokes the draw generator and persists its output.
func (s *TournamentService) drawLevel(ctx context.Context, category domain.Category, level domain.Level, role ports.DrawRole, advancing []domain.ScoredEntity, snapshots map[domain.Level][]domain.ScoredEntity) error {
	draw, err := s.draws.Generate(ctx, category, level, role, advancing)
	if err != nil {
		return fmt.Errorf("drawing level %s: %w", level, err)
	}
	if draw.Empty() {
		return fmt.Errorf("%w: empty draw for level %s", ports.ErrDrawRejected, level)
	}

	var entities []domain.ScoredEntity
	if len(draw.Matches) > 0 {
		if err := s.entries.PutMatches(ctx, draw.Matches); err != nil {
			return err
		}
		for _, m := range draw.Matches {
			entities = append(entities, m)
		}
	}
	if len(draw.Performances) > 0 {
		if err := s.entries.PutPerformances(ctx, draw.Performances); err != nil {
			return err
		}
		for _, p := range draw.Performances {
			entities = append(entities, p)
		}
	}
	snapshots[level] = entities

	s.log.Info(ctx, "level drawn",
		logger.String("category", category.ID),
		logger.String("level", string(level)),
		logger.Int("entities", len(entities)))
	s.metrics.RecordCounter("levels_drawn_total", 1, map[string]string{"category": category.ID, "level": string(level)})
	return nil
}

// roundSnapshots shapes the fetched levels into the assembler's input, in
// publication order with each round paired with its successor.
func (s *TournamentService) roundSnapshots(seq domain.LevelSequence, snapshots map[domain.Level][]domain.ScoredEntity) []domain.RoundSnapshot {
	var rounds []domain.RoundSnapshot
	for _, level := range seq.Main {
		rs := domain.RoundSnapshot{Level: level, AtLevel: snapshots[level]}
		if next, ok := seq.Next(level); ok {
			rs.AtNext = snapshots[next]
		}
		rounds = append(rounds, rs)
	}
	if seq.Consolation != "" {
		rounds = append(rounds, domain.RoundSnapshot{
			Level:   seq.Consolation,
			AtLevel: snapshots[seq.Consolation],
		})
	}
	return rounds
}

// nopMetrics is the default MetricsCollector when none is supplied.
type nopMetrics struct{}

func (nopMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (nopMetrics) RecordCounter(string, float64, map[string]string)      {}
func (nopMetrics) RecordGauge(string, float64, map[string]string)        {}
