// Command simulate_tournament seeds a synthetic category, plays it to
// completion through the refresh cycle, and prints the resulting report.
// It exercises the whole engine end to end: scoring, ranking, advancement,
// draw generation, and report assembly, against either store driver.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-shiai/infrastructure/bracket"
	"github.com/ahrav/go-shiai/infrastructure/drawgen"
	"github.com/ahrav/go-shiai/infrastructure/middleware"
	"github.com/ahrav/go-shiai/infrastructure/ranking"
	"github.com/ahrav/go-shiai/infrastructure/report"
	"github.com/ahrav/go-shiai/infrastructure/scoring"
	"github.com/ahrav/go-shiai/infrastructure/storage/memory"
	mongostore "github.com/ahrav/go-shiai/infrastructure/storage/mongo"
	"github.com/ahrav/go-shiai/internal/application"
	"github.com/ahrav/go-shiai/internal/config"
	"github.com/ahrav/go-shiai/internal/domain"
	"github.com/ahrav/go-shiai/internal/ports"
	"github.com/ahrav/go-shiai/pkg/logger"
)

const maxCycles = 16

// simStore is the store surface the simulator needs: the engine's ports
// plus category seeding.
type simStore interface {
	ports.EntryStore
	ports.ReportStore
	PutCategory(ctx context.Context, category domain.Category) error
}

func main() {
	var (
		configPath  = flag.String("config", "", "Path to runtime config YAML (optional)")
		discipline  = flag.String("discipline", "kumite", "Discipline to simulate: kata or kumite")
		competitors = flag.Int("competitors", 8, "Number of competitors to seed")
		seed        = flag.Int64("seed", 1, "Random seed for judge scores")
		bronze      = flag.String("bronze", "", "Override bronze policy: shared or playoff")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	logg := logger.New(cfg.LogLevel)

	d := domain.Discipline(*discipline)
	if !d.Valid() {
		log.Fatalf("unknown discipline %q", *discipline)
	}

	format := loadFormat(cfg)
	if *bronze != "" {
		if !domain.BronzePolicy(*bronze).Valid() {
			log.Fatalf("unknown bronze policy %q", *bronze)
		}
		format.Kumite.BronzePolicy = *bronze
	}

	ctx := context.Background()
	store := openStore(ctx, cfg)
	refresher := buildRefresher(store, format, logg)

	rng := rand.New(rand.NewSource(*seed))
	category := domain.Category{ID: "cat-sim", Name: "Simulated " + *discipline, Discipline: d}
	if err := store.PutCategory(ctx, category); err != nil {
		log.Fatalf("seeding category: %v", err)
	}
	seq := format.Sequence(d)
	seedFirstLevel(ctx, store, category, seq.Main[0], *competitors)

	var rep domain.Report
	for cycle := 0; cycle < maxCycles; cycle++ {
		playPendingEntities(ctx, store, category, seq, rng)

		rep, err = refresher.RefreshCategory(ctx, category.ID)
		if err != nil {
			log.Fatalf("refresh failed: %v", err)
		}
		if len(rep.FinalRankings) > 0 {
			break
		}
		if d.IsKata() {
			assignTerminalPlaces(ctx, store, category, seq)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Fatalf("encoding report: %v", err)
	}
	fmt.Fprintf(os.Stderr, "report %s generated after simulation\n", rep.ID)
}

func loadFormat(cfg *config.Config) application.FormatConfig {
	if cfg.FormatPath == "" {
		return application.DefaultFormatConfig()
	}
	format, err := application.NewFormatLoader().LoadFromFile(context.Background(), cfg.FormatPath)
	if err != nil {
		log.Fatalf("loading format: %v", err)
	}
	return format
}

func openStore(ctx context.Context, cfg *config.Config) simStore {
	if cfg.Store.Driver == "mongo" {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := mongostore.Connect(ctx, cfg.Store.URI, cfg.Store.Database)
		if err != nil {
			log.Fatalf("connecting to mongo: %v", err)
		}
		return store
	}
	return memory.NewStore()
}

func buildRefresher(store simStore, format application.FormatConfig, logg logger.Logger) ports.Refresher {
	aggregator, err := scoring.NewTrimmedAggregator(scoring.Config{
		MinJudges: format.JudgePanel,
		MinScore:  domain.MinJudgeScore,
		MaxScore:  domain.MaxJudgeScore,
	})
	if err != nil {
		log.Fatalf("building aggregator: %v", err)
	}
	ranker := ranking.NewRanker()

	engine, err := bracket.NewEngine(bracket.Config{
		AdvanceCounts: format.AdvanceCounts(domain.DisciplineKata),
		BronzePolicy:  format.BronzePolicy(),
	}, ranker)
	if err != nil {
		log.Fatalf("building engine: %v", err)
	}

	assembler, err := report.NewAssembler(report.Config{
		BronzePolicy: format.BronzePolicy(),
		PodiumPlaces: 3,
	}, ranker, engine)
	if err != nil {
		log.Fatalf("building assembler: %v", err)
	}

	svc, err := application.NewTournamentService(application.ServiceConfig{
		Format:             format,
		RefreshConcurrency: 4,
	}, application.Dependencies{
		Entries:    store,
		Reports:    store,
		Aggregator: aggregator,
		Engine:     engine,
		Assembler:  assembler,
		Draws:      drawgen.NewSequential(),
		Metrics:    middleware.NewPrometheusMetrics(),
		Log:        logg,
	})
	if err != nil {
		log.Fatalf("building service: %v", err)
	}
	return middleware.NewTracingRefresher(svc)
}

// seedFirstLevel stands in for the upstream registration draw that
// produces the initial assignments.
func seedFirstLevel(ctx context.Context, store simStore, category domain.Category, level domain.Level, competitors int) {
	if category.Discipline.IsKata() {
		var performances []*domain.Performance
		for i := 0; i < competitors; i++ {
			performances = append(performances, &domain.Performance{
				ID:           uuid.NewString(),
				CompetitorID: fmt.Sprintf("competitor-%02d", i+1),
				CategoryID:   category.ID,
				Level:        level,
				Order:        i,
			})
		}
		if err := store.PutPerformances(ctx, performances); err != nil {
			log.Fatalf("seeding performances: %v", err)
		}
		return
	}

	var matches []*domain.Match
	for i := 0; i < competitors; i += 2 {
		match := &domain.Match{
			ID:         uuid.NewString(),
			CategoryID: category.ID,
			Level:      level,
			Status:     domain.MatchScheduled,
			Order:      i / 2,
		}
		if i+1 < competitors {
			match.Participants = []domain.ParticipantScore{
				{CompetitorID: fmt.Sprintf("competitor-%02d", i+1)},
				{CompetitorID: fmt.Sprintf("competitor-%02d", i+2)},
			}
		} else {
			// Odd field: the last entrant opens with a bye.
			entrant := fmt.Sprintf("competitor-%02d", i+1)
			match.Participants = []domain.ParticipantScore{
				{CompetitorID: entrant, Outcome: domain.OutcomeWin},
			}
			match.Status = domain.MatchCompleted
			match.WinnerID = entrant
		}
		matches = append(matches, match)
	}
	if err := store.PutMatches(ctx, matches); err != nil {
		log.Fatalf("seeding matches: %v", err)
	}
}

// playPendingEntities simulates judges: unscored performances get a full
// panel of scores, scheduled matches get fought to completion.
func playPendingEntities(ctx context.Context, store simStore, category domain.Category, seq domain.LevelSequence, rng *rand.Rand) {
	levels := append([]domain.Level{}, seq.Main...)
	if seq.Consolation != "" {
		levels = append(levels, seq.Consolation)
	}

	for _, level := range levels {
		entities, err := store.EntitiesAtLevel(ctx, category.ID, level)
		if err != nil {
			log.Fatalf("fetching level %s: %v", level, err)
		}
		var performances []*domain.Performance
		var matches []*domain.Match
		for _, entity := range entities {
			switch e := entity.(type) {
			case *domain.Performance:
				if len(e.JudgeScores) > 0 {
					continue
				}
				for j := 0; j < 5; j++ {
					e.JudgeScores = append(e.JudgeScores, judgeScore(rng))
				}
				performances = append(performances, e)
			case *domain.Match:
				if e.Status != domain.MatchScheduled {
					continue
				}
				fight(e, rng)
				matches = append(matches, e)
			}
		}
		if len(performances) > 0 {
			if err := store.PutPerformances(ctx, performances); err != nil {
				log.Fatalf("storing judge scores: %v", err)
			}
		}
		if len(matches) > 0 {
			if err := store.PutMatches(ctx, matches); err != nil {
				log.Fatalf("storing match results: %v", err)
			}
		}
	}
}

// assignTerminalPlaces simulates the judges' manual placement decision in
// the terminal Kata round once every performance there is scored.
func assignTerminalPlaces(ctx context.Context, store simStore, category domain.Category, seq domain.LevelSequence) {
	entities, err := store.EntitiesAtLevel(ctx, category.ID, seq.Terminal())
	if err != nil {
		log.Fatalf("fetching terminal round: %v", err)
	}
	var performances []*domain.Performance
	for _, entity := range entities {
		p, ok := entity.(*domain.Performance)
		if !ok || p.Breakdown == nil || p.Place > 0 {
			return
		}
		performances = append(performances, p)
	}
	if len(performances) == 0 {
		return
	}

	sort.Slice(performances, func(i, j int) bool {
		return performances[i].Breakdown.Final > performances[j].Breakdown.Final
	})
	for i, p := range performances {
		p.Place = i + 1
		if p.Place > 3 {
			// Shared bronze: the bottom finalists take third together.
			p.Place = 3
		}
	}
	if err := store.PutPerformances(ctx, performances); err != nil {
		log.Fatalf("storing placements: %v", err)
	}
}

func fight(m *domain.Match, rng *rand.Rand) {
	if len(m.Participants) != 2 {
		return
	}
	for i := range m.Participants {
		m.Participants[i].Technical = judgeScore(rng)
		m.Participants[i].Performance = judgeScore(rng)
	}
	w, l := 0, 1
	if m.Participants[1].Total() > m.Participants[0].Total() {
		w, l = 1, 0
	}
	m.Participants[w].Outcome = domain.OutcomeWin
	m.Participants[l].Outcome = domain.OutcomeLoss
	m.WinnerID = m.Participants[w].CompetitorID
	m.Status = domain.MatchCompleted
}

// judgeScore returns a plausible judge score in [5.0, 10.0] with one
// decimal place.
func judgeScore(rng *rand.Rand) float64 {
	return 5.0 + float64(rng.Intn(51))/10.0
}
