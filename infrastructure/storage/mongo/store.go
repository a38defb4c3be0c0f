// Package mongo implements the persistence ports on MongoDB. Entities are
// stored normalized, keyed by their stable IDs; the engine never sees
// nested object graphs.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ahrav/go-shiai/internal/domain"
	"github.com/ahrav/go-shiai/internal/ports"
)

var (
	_ ports.EntryStore  = (*Store)(nil)
	_ ports.ReportStore = (*Store)(nil)
)

const (
	collCategories   = "categories"
	collPerformances = "performances"
	collMatches      = "matches"
	collReports      = "reports"
)

// Store implements the persistence ports on a MongoDB database.
// Report saves are full-document replacements, matching the
// regenerate-and-replace contract; concurrent regenerations resolve as
// last writer wins.
type Store struct {
	db *mongo.Database
}

// Connect dials MongoDB and returns a Store bound to the named database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &ports.StoreError{Operation: "connect", Err: fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &ports.StoreError{Operation: "ping", Err: fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)}
	}
	return &Store{db: client.Database(database)}, nil
}

// NewStore wraps an existing database handle, mainly for tests.
func NewStore(db *mongo.Database) *Store { return &Store{db: db} }

// categoryDoc mirrors domain.Category with bson keys.
type categoryDoc struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	Discipline string `bson:"discipline"`
}

// performanceDoc mirrors domain.Performance, normalized by ID.
type performanceDoc struct {
	ID           string           `bson:"_id"`
	CompetitorID string           `bson:"competitor_id"`
	CategoryID   string           `bson:"category_id"`
	Level        string           `bson:"level"`
	JudgeScores  []float64        `bson:"judge_scores"`
	Breakdown    *scoreBreakdown  `bson:"breakdown,omitempty"`
	Order        int              `bson:"order"`
	Place        int              `bson:"place,omitempty"`
}

type scoreBreakdown struct {
	Highest float64   `bson:"highest"`
	Lowest  float64   `bson:"lowest"`
	Middles []float64 `bson:"middle_scores"`
	Final   float64   `bson:"final_score"`
}

// matchDoc mirrors domain.Match, normalized by ID.
type matchDoc struct {
	ID           string           `bson:"_id"`
	CategoryID   string           `bson:"category_id"`
	Level        string           `bson:"level"`
	Participants []participantDoc `bson:"participants"`
	Status       string           `bson:"status"`
	WinnerID     string           `bson:"winner_id,omitempty"`
	Order        int              `bson:"order"`
}

type participantDoc struct {
	CompetitorID string  `bson:"competitor_id"`
	Technical    float64 `bson:"technical"`
	Performance  float64 `bson:"performance"`
	Outcome      string  `bson:"outcome,omitempty"`
}

// Categories implements ports.EntryStore.
func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	cursor, err := s.db.Collection(collCategories).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, &ports.StoreError{Operation: "categories", Err: err}
	}
	defer cursor.Close(ctx)

	var out []domain.Category
	for cursor.Next(ctx) {
		var doc categoryDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, &ports.StoreError{Operation: "categories", Err: err}
		}
		out = append(out, domain.Category{ID: doc.ID, Name: doc.Name, Discipline: domain.Discipline(doc.Discipline)})
	}
	return out, cursor.Err()
}

// Category implements ports.EntryStore.
func (s *Store) Category(ctx context.Context, categoryID string) (domain.Category, error) {
	var doc categoryDoc
	err := s.db.Collection(collCategories).FindOne(ctx, bson.M{"_id": categoryID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Category{}, &ports.StoreError{Operation: "category", Key: categoryID, Err: ports.ErrNotFound}
	}
	if err != nil {
		return domain.Category{}, &ports.StoreError{Operation: "category", Key: categoryID, Err: err}
	}
	return domain.Category{ID: doc.ID, Name: doc.Name, Discipline: domain.Discipline(doc.Discipline)}, nil
}

// PutCategory inserts or replaces a category.
func (s *Store) PutCategory(ctx context.Context, category domain.Category) error {
	doc := categoryDoc{ID: category.ID, Name: category.Name, Discipline: string(category.Discipline)}
	_, err := s.db.Collection(collCategories).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &ports.StoreError{Operation: "put_category", Key: category.ID, Err: err}
	}
	return nil
}

// EntitiesAtLevel implements ports.EntryStore. Entities come back sorted
// by registration order for a stable snapshot.
func (s *Store) EntitiesAtLevel(ctx context.Context, categoryID string, level domain.Level) ([]domain.ScoredEntity, error) {
	category, err := s.Category(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"category_id": categoryID, "level": string(level)}
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})

	if category.Discipline.IsKumite() {
		cursor, err := s.db.Collection(collMatches).Find(ctx, filter, opts)
		if err != nil {
			return nil, &ports.StoreError{Operation: "entities_at_level", Key: categoryID, Err: err}
		}
		defer cursor.Close(ctx)

		var out []domain.ScoredEntity
		for cursor.Next(ctx) {
			var doc matchDoc
			if err := cursor.Decode(&doc); err != nil {
				return nil, &ports.StoreError{Operation: "entities_at_level", Key: categoryID, Err: err}
			}
			out = append(out, docToMatch(doc))
		}
		return out, cursor.Err()
	}

	cursor, err := s.db.Collection(collPerformances).Find(ctx, filter, opts)
	if err != nil {
		return nil, &ports.StoreError{Operation: "entities_at_level", Key: categoryID, Err: err}
	}
	defer cursor.Close(ctx)

	var out []domain.ScoredEntity
	for cursor.Next(ctx) {
		var doc performanceDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, &ports.StoreError{Operation: "entities_at_level", Key: categoryID, Err: err}
		}
		out = append(out, docToPerformance(doc))
	}
	return out, cursor.Err()
}

// PutPerformances implements ports.EntryStore.
func (s *Store) PutPerformances(ctx context.Context, performances []*domain.Performance) error {
	coll := s.db.Collection(collPerformances)
	for _, p := range performances {
		doc := performanceToDoc(p)
		if _, err := coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
			return &ports.StoreError{Operation: "put_performances", Key: p.ID, Err: err}
		}
	}
	return nil
}

// PutMatches implements ports.EntryStore.
func (s *Store) PutMatches(ctx context.Context, matches []*domain.Match) error {
	coll := s.db.Collection(collMatches)
	for _, m := range matches {
		doc := matchToDoc(m)
		if _, err := coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
			return &ports.StoreError{Operation: "put_matches", Key: m.ID, Err: err}
		}
	}
	return nil
}

// SaveReport implements ports.ReportStore. The report document is keyed
// by category, so each save fully replaces the prior report.
func (s *Store) SaveReport(ctx context.Context, report domain.Report) error {
	doc := bson.M{
		"_id":            report.CategoryID,
		"report_id":      report.ID,
		"fingerprint":    report.Fingerprint,
		"rounds":         report.Rounds,
		"final_rankings": report.FinalRankings,
	}
	_, err := s.db.Collection(collReports).ReplaceOne(ctx, bson.M{"_id": report.CategoryID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return &ports.StoreError{Operation: "save_report", Key: report.CategoryID, Err: err}
	}
	return nil
}

// Report implements ports.ReportStore.
func (s *Store) Report(ctx context.Context, categoryID string) (domain.Report, error) {
	var doc struct {
		ID            string                `bson:"_id"`
		ReportID      string                `bson:"report_id"`
		Fingerprint   string                `bson:"fingerprint"`
		Rounds        []domain.RoundReport  `bson:"rounds"`
		FinalRankings []domain.FinalRanking `bson:"final_rankings"`
	}
	err := s.db.Collection(collReports).FindOne(ctx, bson.M{"_id": categoryID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Report{}, &ports.StoreError{Operation: "report", Key: categoryID, Err: ports.ErrNotFound}
	}
	if err != nil {
		return domain.Report{}, &ports.StoreError{Operation: "report", Key: categoryID, Err: err}
	}
	return domain.Report{
		ID:            doc.ReportID,
		CategoryID:    doc.ID,
		Fingerprint:   doc.Fingerprint,
		Rounds:        doc.Rounds,
		FinalRankings: doc.FinalRankings,
	}, nil
}

func docToPerformance(doc performanceDoc) *domain.Performance {
	p := &domain.Performance{
		ID:           doc.ID,
		CompetitorID: doc.CompetitorID,
		CategoryID:   doc.CategoryID,
		Level:        domain.Level(doc.Level),
		JudgeScores:  doc.JudgeScores,
		Order:        doc.Order,
		Place:        doc.Place,
	}
	if doc.Breakdown != nil {
		p.Breakdown = &domain.ScoreBreakdown{
			Highest: doc.Breakdown.Highest,
			Lowest:  doc.Breakdown.Lowest,
			Middles: doc.Breakdown.Middles,
			Final:   doc.Breakdown.Final,
		}
	}
	return p
}

func performanceToDoc(p *domain.Performance) performanceDoc {
	doc := performanceDoc{
		ID:           p.ID,
		CompetitorID: p.CompetitorID,
		CategoryID:   p.CategoryID,
		Level:        string(p.Level),
		JudgeScores:  p.JudgeScores,
		Order:        p.Order,
		Place:        p.Place,
	}
	if p.Breakdown != nil {
		doc.Breakdown = &scoreBreakdown{
			Highest: p.Breakdown.Highest,
			Lowest:  p.Breakdown.Lowest,
			Middles: p.Breakdown.Middles,
			Final:   p.Breakdown.Final,
		}
	}
	return doc
}

func docToMatch(doc matchDoc) *domain.Match {
	m := &domain.Match{
		ID:         doc.ID,
		CategoryID: doc.CategoryID,
		Level:      domain.Level(doc.Level),
		Status:     domain.MatchStatus(doc.Status),
		WinnerID:   doc.WinnerID,
		Order:      doc.Order,
	}
	for _, p := range doc.Participants {
		m.Participants = append(m.Participants, domain.ParticipantScore{
			CompetitorID: p.CompetitorID,
			Technical:    p.Technical,
			Performance:  p.Performance,
			Outcome:      domain.Outcome(p.Outcome),
		})
	}
	return m
}

func matchToDoc(m *domain.Match) matchDoc {
	doc := matchDoc{
		ID:         m.ID,
		CategoryID: m.CategoryID,
		Level:      string(m.Level),
		Status:     string(m.Status),
		WinnerID:   m.WinnerID,
		Order:      m.Order,
	}
	for _, p := range m.Participants {
		doc.Participants = append(doc.Participants, participantDoc{
			CompetitorID: p.CompetitorID,
			Technical:    p.Technical,
			Performance:  p.Performance,
			Outcome:      string(p.Outcome),
		})
	}
	return doc
}
