// Package scoring implements the trimmed-sum judge score aggregation used
// for Kata performances.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-shiai/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

var _ domain.ScoreAggregator = (*TrimmedAggregator)(nil)

// Config defines the judge panel parameters for trimmed-sum aggregation.
// All fields are validated during construction; the config is immutable
// afterwards so the aggregator stays safe for concurrent use.
type Config struct {
	// MinJudges is the minimum number of raw scores required before a
	// final score may be computed. With one maximum and one minimum
	// removed, MinJudges-2 middle scores survive, which must be at least
	// domain.MinMiddleScores.
	MinJudges int `yaml:"min_judges" validate:"required,min=5"`

	// MinScore is the lowest legal judge score.
	MinScore float64 `yaml:"min_score" validate:"min=0"`

	// MaxScore is the highest legal judge score.
	MaxScore float64 `yaml:"max_score" validate:"gtfield=MinScore"`
}

// DefaultConfig returns the standard five-judge panel with the [5.0, 10.0]
// score bounds.
func DefaultConfig() Config {
	return Config{
		MinJudges: 5,
		MinScore:  domain.MinJudgeScore,
		MaxScore:  domain.MaxJudgeScore,
	}
}

// TrimmedAggregator computes a performance's final score by removing
// exactly one instance of the highest and one of the lowest judge score
// and summing the remainder. It is a pure function of its input: the same
// scores produce the same breakdown regardless of input order, and
// recomputation is idempotent. The aggregator never stores anything;
// persisting the breakdown is the caller's responsibility.
type TrimmedAggregator struct {
	config Config
}

// NewTrimmedAggregator creates a TrimmedAggregator with the given config.
func NewTrimmedAggregator(config Config) (*TrimmedAggregator, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &TrimmedAggregator{config: config}, nil
}

// Aggregate implements domain.ScoreAggregator.
//
// Exactly one instance of the maximum and one of the minimum are removed,
// even when extreme values are duplicated; with all-identical scores this
// still trims one from each end. The surviving middle scores are sorted
// ascending for presentation and summed into the final score.
func (ta *TrimmedAggregator) Aggregate(scores []float64) (domain.ScoreBreakdown, error) {
	if len(scores) < ta.config.MinJudges || len(scores)-2 < domain.MinMiddleScores {
		return domain.ScoreBreakdown{}, &domain.ScoreError{Err: domain.ErrInsufficientScores}
	}

	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) || s < ta.config.MinScore || s > ta.config.MaxScore {
			return domain.ScoreBreakdown{}, &domain.ScoreError{
				Index: i,
				Value: s,
				Err:   domain.ErrScoreOutOfRange,
			}
		}
	}

	maxIdx, minIdx := 0, 0
	for i, s := range scores {
		if s > scores[maxIdx] {
			maxIdx = i
		}
		if s < scores[minIdx] {
			minIdx = i
		}
	}
	// All-identical input: both indexes point at element 0; shift one so a
	// single instance is still removed from each end.
	if maxIdx == minIdx {
		maxIdx = len(scores) - 1
	}

	middles := make([]float64, 0, len(scores)-2)
	for i, s := range scores {
		if i == maxIdx || i == minIdx {
			continue
		}
		middles = append(middles, s)
	}
	sort.Float64s(middles)

	var sum float64
	for _, s := range middles {
		sum += s
	}

	return domain.ScoreBreakdown{
		Highest: scores[maxIdx],
		Lowest:  scores[minIdx],
		Middles: middles,
		Final:   sum,
	}, nil
}

// UnmarshalParameters deserializes YAML configuration and replaces the
// aggregator's config after validation. Not safe for concurrent use with
// Aggregate; reconfigure before sharing.
func (ta *TrimmedAggregator) UnmarshalParameters(params yaml.Node) error {
	config := DefaultConfig()
	if err := params.Decode(&config); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	ta.config = config
	return nil
}
