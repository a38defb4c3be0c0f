package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-shiai/infrastructure/bracket"
	"github.com/ahrav/go-shiai/infrastructure/drawgen"
	"github.com/ahrav/go-shiai/infrastructure/ranking"
	"github.com/ahrav/go-shiai/infrastructure/report"
	"github.com/ahrav/go-shiai/infrastructure/scoring"
	"github.com/ahrav/go-shiai/infrastructure/storage/memory"
	"github.com/ahrav/go-shiai/internal/domain"
)

func newService(t *testing.T, store *memory.Store) *TournamentService {
	t.Helper()

	ranker := ranking.NewRanker()
	aggregator, err := scoring.NewTrimmedAggregator(scoring.DefaultConfig())
	require.NoError(t, err)
	engine, err := bracket.NewEngine(bracket.DefaultConfig(), ranker)
	require.NoError(t, err)
	assembler, err := report.NewAssembler(report.DefaultConfig(), ranker, engine)
	require.NoError(t, err)

	svc, err := NewTournamentService(DefaultServiceConfig(), Dependencies{
		Entries:    store,
		Reports:    store,
		Aggregator: aggregator,
		Engine:     engine,
		Assembler:  assembler,
		Draws:      drawgen.NewSequential(),
	})
	require.NoError(t, err)
	return svc
}

// completeScheduledMatches finishes every scheduled match at a level in
// favor of the first participant, standing in for the mat-side scoring
// system the engine polls against.
func completeScheduledMatches(t *testing.T, store *memory.Store, categoryID string, level domain.Level) {
	t.Helper()
	ctx := context.Background()

	entities, err := store.EntitiesAtLevel(ctx, categoryID, level)
	require.NoError(t, err)

	var updated []*domain.Match
	for _, entity := range entities {
		m, ok := entity.(*domain.Match)
		if !ok || m.Status != domain.MatchScheduled {
			continue
		}
		require.Len(t, m.Participants, 2)
		m.Participants[0].Technical = 8
		m.Participants[0].Outcome = domain.OutcomeWin
		m.Participants[1].Technical = 6
		m.Participants[1].Outcome = domain.OutcomeLoss
		m.WinnerID = m.Participants[0].CompetitorID
		m.Status = domain.MatchCompleted
		updated = append(updated, m)
	}
	if len(updated) > 0 {
		require.NoError(t, store.PutMatches(ctx, updated))
	}
}

func scorePendingPerformances(t *testing.T, store *memory.Store, categoryID string, level domain.Level, base float64) {
	t.Helper()
	ctx := context.Background()

	entities, err := store.EntitiesAtLevel(ctx, categoryID, level)
	require.NoError(t, err)

	var updated []*domain.Performance
	for i, entity := range entities {
		p, ok := entity.(*domain.Performance)
		if !ok || len(p.JudgeScores) > 0 {
			continue
		}
		// Earlier registration order scores higher, spread over [5,10].
		s := base - float64(i)*0.2
		p.JudgeScores = []float64{s, s, s, s, s}
		updated = append(updated, p)
	}
	if len(updated) > 0 {
		require.NoError(t, store.PutPerformances(ctx, updated))
	}
}

func TestTournamentServiceKumiteFullBracket(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(t, store)

	category := domain.Category{ID: "kumite-75kg", Name: "-75kg", Discipline: domain.DisciplineKumite}
	require.NoError(t, store.PutCategory(ctx, category))

	// Sixteen competitors, eight preliminary matches.
	var prelims []*domain.Match
	for i := 0; i < 8; i++ {
		prelims = append(prelims, &domain.Match{
			ID:         fmt.Sprintf("prelim-%d", i),
			CategoryID: category.ID,
			Level:      domain.LevelPreliminary,
			Status:     domain.MatchScheduled,
			Order:      i,
			Participants: []domain.ParticipantScore{
				{CompetitorID: fmt.Sprintf("c%02d", 2*i+1)},
				{CompetitorID: fmt.Sprintf("c%02d", 2*i+2)},
			},
		})
	}
	require.NoError(t, store.PutMatches(ctx, prelims))

	levels := []domain.Level{
		domain.LevelPreliminary,
		domain.LevelQuarterfinal,
		domain.LevelSemifinal,
		domain.LevelFinal,
	}
	var rep domain.Report
	for _, level := range levels {
		completeScheduledMatches(t, store, category.ID, level)
		var err error
		rep, err = svc.RefreshCategory(ctx, category.ID)
		require.NoError(t, err)
	}

	// Each round halves the field: 8, 4, 2, 1 matches.
	require.Len(t, rep.Rounds, 4)
	assert.Len(t, rep.Rounds[0].Results, 8)
	assert.Len(t, rep.Rounds[1].Results, 4)
	assert.Len(t, rep.Rounds[2].Results, 2)
	assert.Len(t, rep.Rounds[3].Results, 1)

	// Shared bronze: champion, runner-up, and both semifinal losers.
	require.Len(t, rep.FinalRankings, 4)
	assert.Equal(t, 1, rep.FinalRankings[0].Place)
	assert.Equal(t, 2, rep.FinalRankings[1].Place)
	assert.Equal(t, 3, rep.FinalRankings[2].Place)
	assert.Equal(t, 3, rep.FinalRankings[3].Place)
	assert.Equal(t, "c01", rep.FinalRankings[0].Label)

	stored, err := store.Report(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Fingerprint, stored.Fingerprint)
}

func TestTournamentServiceKataFullProgression(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(t, store)

	category := domain.Category{ID: "kata-senior", Name: "Senior Kata", Discipline: domain.DisciplineKata}
	require.NoError(t, store.PutCategory(ctx, category))

	var entries []*domain.Performance
	for i := 0; i < 12; i++ {
		entries = append(entries, &domain.Performance{
			ID:           fmt.Sprintf("entry-%02d", i),
			CompetitorID: fmt.Sprintf("c%02d", i+1),
			CategoryID:   category.ID,
			Level:        domain.LevelFirstRound,
			Order:        i,
		})
	}
	require.NoError(t, store.PutPerformances(ctx, entries))

	// First round: twelve scored, top eight advance.
	scorePendingPerformances(t, store, category.ID, domain.LevelFirstRound, 9.5)
	rep, err := svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)
	require.Len(t, rep.Rounds, 2)
	assert.Len(t, rep.Rounds[0].Results, 12)
	assert.Len(t, rep.Rounds[0].Advanced, 8)
	assert.Len(t, rep.Rounds[1].Results, 8)

	// Second round: eight scored, top four reach the Final 4.
	scorePendingPerformances(t, store, category.ID, domain.LevelSecondRound, 9.8)
	rep, err = svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)
	require.Len(t, rep.Rounds, 3)
	assert.Len(t, rep.Rounds[2].Results, 4)
	assert.Empty(t, rep.FinalRankings)

	// Final 4 scored; the judges then assign explicit places with a
	// shared third.
	scorePendingPerformances(t, store, category.ID, domain.LevelFinalFour, 9.9)
	rep, err = svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)

	final4, err := store.EntitiesAtLevel(ctx, category.ID, domain.LevelFinalFour)
	require.NoError(t, err)
	require.Len(t, final4, 4)
	var placed []*domain.Performance
	for i, entity := range final4 {
		p := entity.(*domain.Performance)
		p.Place = i + 1
		if p.Place > 3 {
			p.Place = 3
		}
		placed = append(placed, p)
	}
	require.NoError(t, store.PutPerformances(ctx, placed))

	rep, err = svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)

	require.Len(t, rep.FinalRankings, 4)
	places := make([]int, len(rep.FinalRankings))
	for i, fr := range rep.FinalRankings {
		places[i] = fr.Place
	}
	assert.Equal(t, []int{1, 2, 3, 3}, places)
	// Best first-round competitor carried through on top.
	assert.Equal(t, "c01", rep.FinalRankings[0].Label)
}

// Re-running the refresh against unchanged data must regenerate an
// identical report: same fingerprint, same ID, no new rounds.
func TestTournamentServiceRefreshIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(t, store)

	category := domain.Category{ID: "kumite-60kg", Discipline: domain.DisciplineKumite}
	require.NoError(t, store.PutCategory(ctx, category))
	require.NoError(t, store.PutMatches(ctx, []*domain.Match{{
		ID:         "m1",
		CategoryID: category.ID,
		Level:      domain.LevelPreliminary,
		Status:     domain.MatchScheduled,
		Participants: []domain.ParticipantScore{
			{CompetitorID: "aoki"}, {CompetitorID: "sato"},
		},
	}}))

	first, err := svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)
	second, err := svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first, second)
}

func TestTournamentServiceRefreshAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(t, store)

	require.NoError(t, store.PutCategory(ctx, domain.Category{ID: "kumite-a", Discipline: domain.DisciplineKumite}))
	require.NoError(t, store.PutCategory(ctx, domain.Category{ID: "kata-b", Discipline: domain.DisciplineKata}))
	require.NoError(t, store.PutMatches(ctx, []*domain.Match{{
		ID: "m1", CategoryID: "kumite-a", Level: domain.LevelPreliminary,
		Status: domain.MatchScheduled,
		Participants: []domain.ParticipantScore{
			{CompetitorID: "aoki"}, {CompetitorID: "sato"},
		},
	}}))
	require.NoError(t, store.PutPerformances(ctx, []*domain.Performance{{
		ID: "p1", CategoryID: "kata-b", Level: domain.LevelFirstRound,
		JudgeScores: []float64{9, 8.5, 9.5, 8, 9},
	}}))

	require.NoError(t, svc.RefreshAll(ctx))

	for _, id := range []string{"kumite-a", "kata-b"} {
		rep, err := store.Report(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rep.CategoryID)
		assert.NotEmpty(t, rep.Rounds)
	}

	// The kata performance's panel was complete, so the refresh computed
	// and persisted its breakdown.
	entities, err := store.EntitiesAtLevel(ctx, "kata-b", domain.LevelFirstRound)
	require.NoError(t, err)
	p := entities[0].(*domain.Performance)
	require.NotNil(t, p.Breakdown)
	assert.InDelta(t, 26.5, p.Breakdown.Final, 1e-9)
}

func TestTournamentServiceSkipsUnscorableEntities(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(t, store)

	category := domain.Category{ID: "kata-senior", Discipline: domain.DisciplineKata}
	require.NoError(t, store.PutCategory(ctx, category))
	require.NoError(t, store.PutPerformances(ctx, []*domain.Performance{
		{
			ID: "good", CategoryID: category.ID, Level: domain.LevelFirstRound, Order: 0,
			JudgeScores: []float64{9, 8.5, 9.5, 8, 9},
		},
		{
			// Out-of-range score: aggregation fails, entity stays pending.
			ID: "bad", CategoryID: category.ID, Level: domain.LevelFirstRound, Order: 1,
			JudgeScores: []float64{9, 8.5, 12.0, 8, 9},
		},
		{
			// Incomplete panel: not aggregated yet, stays pending.
			ID: "partial", CategoryID: category.ID, Level: domain.LevelFirstRound, Order: 2,
			JudgeScores: []float64{9, 8.5},
		},
	}))

	rep, err := svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)

	require.Len(t, rep.Rounds, 1)
	results := rep.Rounds[0].Results
	// The bad entity fails Resolve and is excluded with a warning; the
	// partial one ranks last as pending.
	require.Len(t, results, 2)
	assert.Equal(t, "good", results[0].EntityRef)
	require.NotNil(t, results[0].Score)
	assert.Equal(t, "partial", results[1].EntityRef)
	assert.Nil(t, results[1].Score)
	assert.NotEmpty(t, rep.Rounds[0].Warnings)
}

// A format may rename the consolation level; the bronze playoff must
// still be drawn from the semifinal losers, not re-derived from the
// default level names.
func TestTournamentServiceCustomConsolationLevel(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	format := DefaultFormatConfig()
	format.Kumite.Consolation = "bronze_match"
	format.Kumite.BronzePolicy = string(domain.BronzePlayoff)

	ranker := ranking.NewRanker()
	aggregator, err := scoring.NewTrimmedAggregator(scoring.DefaultConfig())
	require.NoError(t, err)
	engine, err := bracket.NewEngine(bracket.Config{
		AdvanceCounts: format.AdvanceCounts(domain.DisciplineKumite),
		BronzePolicy:  format.BronzePolicy(),
	}, ranker)
	require.NoError(t, err)
	assembler, err := report.NewAssembler(report.DefaultConfig(), ranker, engine)
	require.NoError(t, err)

	svc, err := NewTournamentService(ServiceConfig{Format: format, RefreshConcurrency: 1}, Dependencies{
		Entries:    store,
		Reports:    store,
		Aggregator: aggregator,
		Engine:     engine,
		Assembler:  assembler,
		Draws:      drawgen.NewSequential(),
	})
	require.NoError(t, err)

	category := domain.Category{ID: "kumite-67kg", Discipline: domain.DisciplineKumite}
	require.NoError(t, store.PutCategory(ctx, category))
	require.NoError(t, store.PutMatches(ctx, []*domain.Match{
		{
			ID: "s1", CategoryID: category.ID, Level: domain.LevelSemifinal,
			Status: domain.MatchCompleted, WinnerID: "w1", Order: 0,
			Participants: []domain.ParticipantScore{
				{CompetitorID: "w1", Technical: 8, Outcome: domain.OutcomeWin},
				{CompetitorID: "l1", Technical: 6, Outcome: domain.OutcomeLoss},
			},
		},
		{
			ID: "s2", CategoryID: category.ID, Level: domain.LevelSemifinal,
			Status: domain.MatchCompleted, WinnerID: "w2", Order: 1,
			Participants: []domain.ParticipantScore{
				{CompetitorID: "w2", Technical: 7, Outcome: domain.OutcomeWin},
				{CompetitorID: "l2", Technical: 5, Outcome: domain.OutcomeLoss},
			},
		},
	}))

	_, err = svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)

	bronze, err := store.EntitiesAtLevel(ctx, category.ID, domain.Level("bronze_match"))
	require.NoError(t, err)
	require.Len(t, bronze, 1)
	m := bronze[0].(*domain.Match)
	var drawn []string
	for _, p := range m.Participants {
		drawn = append(drawn, p.CompetitorID)
	}
	assert.ElementsMatch(t, []string{"l1", "l2"}, drawn)

	final, err := store.EntitiesAtLevel(ctx, category.ID, domain.LevelFinal)
	require.NoError(t, err)
	require.Len(t, final, 1)
	f := final[0].(*domain.Match)
	drawn = drawn[:0]
	for _, p := range f.Participants {
		drawn = append(drawn, p.CompetitorID)
	}
	assert.ElementsMatch(t, []string{"w1", "w2"}, drawn)
}

// A closed level whose every match is unresolvable must degrade to
// warnings, not fail the refresh on every poll.
func TestTournamentServiceAllExcludedLevelStillRefreshes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(t, store)

	category := domain.Category{ID: "kumite-84kg", Discipline: domain.DisciplineKumite}
	require.NoError(t, store.PutCategory(ctx, category))
	require.NoError(t, store.PutMatches(ctx, []*domain.Match{{
		ID: "m1", CategoryID: category.ID, Level: domain.LevelPreliminary,
		Status: domain.MatchCompleted, WinnerID: "nobody",
		Participants: []domain.ParticipantScore{
			{CompetitorID: "aoki"}, {CompetitorID: "sato"},
		},
	}}))

	rep, err := svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rep.Rounds)
	assert.NotEmpty(t, rep.Rounds[0].Warnings)

	// Nothing was drawn from the broken level.
	next, err := store.EntitiesAtLevel(ctx, category.ID, domain.LevelQuarterfinal)
	require.NoError(t, err)
	assert.Empty(t, next)

	// Later polls keep succeeding.
	_, err = svc.RefreshCategory(ctx, category.ID)
	require.NoError(t, err)
}

func TestTournamentServiceUnknownCategory(t *testing.T) {
	store := memory.NewStore()
	svc := newService(t, store)

	_, err := svc.RefreshCategory(context.Background(), "missing")
	require.Error(t, err)
}

func TestNewTournamentServiceValidation(t *testing.T) {
	store := memory.NewStore()
	ranker := ranking.NewRanker()
	aggregator, err := scoring.NewTrimmedAggregator(scoring.DefaultConfig())
	require.NoError(t, err)
	engine, err := bracket.NewEngine(bracket.DefaultConfig(), ranker)
	require.NoError(t, err)
	assembler, err := report.NewAssembler(report.DefaultConfig(), ranker, engine)
	require.NoError(t, err)

	deps := Dependencies{
		Entries:    store,
		Reports:    store,
		Aggregator: aggregator,
		Engine:     engine,
		Assembler:  assembler,
		Draws:      drawgen.NewSequential(),
	}

	t.Run("missing stores", func(t *testing.T) {
		bad := deps
		bad.Entries = nil
		_, err := NewTournamentService(DefaultServiceConfig(), bad)
		require.Error(t, err)
	})

	t.Run("missing engine", func(t *testing.T) {
		bad := deps
		bad.Engine = nil
		_, err := NewTournamentService(DefaultServiceConfig(), bad)
		require.Error(t, err)
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		config := DefaultServiceConfig()
		config.RefreshConcurrency = 0
		_, err := NewTournamentService(config, deps)
		require.Error(t, err)
	})
}
