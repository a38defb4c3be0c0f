package domain

// Judge score bounds for a single Kata performance. Values outside the
// range are invariant violations, not clamped.
const (
	MinJudgeScore = 5.0
	MaxJudgeScore = 10.0
)

// ScoreBreakdown is the result of trimmed-sum aggregation of one
// performance's judge scores: one highest and one lowest instance removed,
// the middle scores summed.
type ScoreBreakdown struct {
	// Highest is the single maximum judge score that was trimmed.
	Highest float64 `json:"highest"`

	// Lowest is the single minimum judge score that was trimmed.
	Lowest float64 `json:"lowest"`

	// Middles holds the surviving scores, sorted ascending for
	// presentation.
	Middles []float64 `json:"middle_scores"`

	// Final is the sum of Middles.
	Final float64 `json:"final_score"`
}

// Performance is one competitor's judged appearance in one round of a Kata
// category. Breakdown stays nil until a full judge panel has scored; until
// then the performance ranks below every scored one ("Pending"), never as
// zero.
type Performance struct {
	// ID is the stable entity identifier.
	ID string `json:"id"`

	// CompetitorID references the competitor (or team) performing.
	CompetitorID string `json:"competitor_id"`

	// CategoryID references the owning category.
	CategoryID string `json:"category_id"`

	// Level is the round the performance belongs to.
	Level Level `json:"level"`

	// JudgeScores holds the raw per-judge scores in the order they were
	// recorded.
	JudgeScores []float64 `json:"judge_scores"`

	// Breakdown holds the derived trimmed-sum result. It is nil while
	// scores are incomplete; once set it changes only through explicit,
	// idempotent recomputation.
	Breakdown *ScoreBreakdown `json:"breakdown,omitempty"`

	// Order is the registration order within the round, assigned at
	// creation. It is the stable ranking tie-break.
	Order int `json:"order"`

	// Place is the explicitly assigned place (1..4) in the Final 4 round,
	// or zero when unassigned.
	Place int `json:"place,omitempty"`
}

var _ ScoredEntity = (*Performance)(nil)

// EntityID implements ScoredEntity.
func (p *Performance) EntityID() string { return p.ID }

// EntityLevel implements ScoredEntity.
func (p *Performance) EntityLevel() Level { return p.Level }

// Seed implements ScoredEntity.
func (p *Performance) Seed() int { return p.Order }

// FinalScore returns the trimmed sum and true once the breakdown has been
// computed.
func (p *Performance) FinalScore() (float64, bool) {
	if p.Breakdown == nil {
		return 0, false
	}
	return p.Breakdown.Final, true
}

// Placement returns the manually assigned place and true when one exists.
func (p *Performance) Placement() (int, bool) {
	if p.Place < 1 {
		return 0, false
	}
	return p.Place, true
}

// Terminal reports whether the final score has been computed.
func (p *Performance) Terminal() bool { return p.Breakdown != nil }

// Resolve checks the performance's scored state for internal consistency.
// A breakdown whose middle scores cannot reproduce the final sum, or raw
// scores outside the judge bounds, disqualify the entity from ranking.
func (p *Performance) Resolve() error {
	for i, s := range p.JudgeScores {
		if s < MinJudgeScore || s > MaxJudgeScore {
			return &ScoreError{EntityID: p.ID, Index: i, Value: s, Err: ErrScoreOutOfRange}
		}
	}
	if p.Breakdown != nil && len(p.Breakdown.Middles) < MinMiddleScores {
		return &ScoreError{EntityID: p.ID, Err: ErrInsufficientScores}
	}
	return nil
}
