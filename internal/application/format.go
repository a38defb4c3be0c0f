// Package application orchestrates the round-progression engine: format
// configuration, the per-category refresh cycle, and the polling loop
// that drives it.
package application

import (
	"fmt"

	"github.com/ahrav/go-shiai/internal/domain"
)

// FormatConfig is the declarative tournament format: which levels each
// discipline progresses through, how many entries feed each judged round,
// and how third place is awarded. It is the YAML entry point loaded by
// FormatLoader; the composition root translates it into engine and
// assembler configuration.
type FormatConfig struct {
	// Version is the configuration schema version.
	Version string `yaml:"version" validate:"required"`

	// Metadata describes the format for operators.
	Metadata Metadata `yaml:"metadata"`

	// Kata is the judged-round progression.
	Kata DisciplineFormat `yaml:"kata" validate:"required"`

	// Kumite is the elimination progression.
	Kumite DisciplineFormat `yaml:"kumite" validate:"required"`

	// JudgePanel is the number of judge scores required before a Kata
	// performance's final score may be computed.
	JudgePanel int `yaml:"judge_panel" validate:"required,min=5"`
}

// Metadata labels a format document.
type Metadata struct {
	// Name is the human-readable format identifier.
	Name string `yaml:"name" validate:"required,min=1,max=255"`

	// Description explains the format's intended use.
	Description string `yaml:"description" validate:"max=1000"`
}

// DisciplineFormat is the level progression of one discipline.
type DisciplineFormat struct {
	// Levels lists the main progression in order; the last entry is the
	// terminal level.
	Levels []LevelFormat `yaml:"levels" validate:"required,min=1,dive"`

	// Consolation optionally names a level played in parallel with the
	// terminal one (the Kumite bronze match).
	Consolation string `yaml:"consolation,omitempty"`

	// BronzePolicy selects shared versus played-off third place.
	// Defaults to shared.
	BronzePolicy string `yaml:"bronze_policy,omitempty" validate:"omitempty,oneof=shared playoff"`
}

// LevelFormat configures one level of a progression.
type LevelFormat struct {
	// Name is the level identifier.
	Name string `yaml:"name" validate:"required,min=1,max=100"`

	// Advance is the number of ranked entities that enter this level from
	// the previous round. Zero means "whatever the draw produces", which
	// is always the case for the first level and for Kumite levels (where
	// winners advance).
	Advance int `yaml:"advance,omitempty" validate:"omitempty,min=1"`
}

// DefaultFormatConfig returns the standard karate tournament format:
// four Kumite elimination levels with a shared bronze, and three Kata
// rounds ending in a Final 4 placement round, judged by a five-judge
// panel.
func DefaultFormatConfig() FormatConfig {
	return FormatConfig{
		Version: "1.0.0",
		Metadata: Metadata{
			Name:        "standard",
			Description: "Standard Kata and Kumite progression.",
		},
		Kata: DisciplineFormat{
			Levels: []LevelFormat{
				{Name: string(domain.LevelFirstRound)},
				{Name: string(domain.LevelSecondRound), Advance: 8},
				{Name: string(domain.LevelFinalFour), Advance: 4},
			},
		},
		Kumite: DisciplineFormat{
			Levels: []LevelFormat{
				{Name: string(domain.LevelPreliminary)},
				{Name: string(domain.LevelQuarterfinal)},
				{Name: string(domain.LevelSemifinal)},
				{Name: string(domain.LevelFinal)},
			},
			Consolation:  string(domain.LevelBronze),
			BronzePolicy: string(domain.BronzeShared),
		},
		JudgePanel: 5,
	}
}

// Sequence returns the level progression configured for a discipline.
func (fc FormatConfig) Sequence(d domain.Discipline) domain.LevelSequence {
	df := fc.Kata
	if d.IsKumite() {
		df = fc.Kumite
	}
	seq := domain.LevelSequence{Consolation: domain.Level(df.Consolation)}
	for _, lf := range df.Levels {
		seq.Main = append(seq.Main, domain.Level(lf.Name))
	}
	return seq
}

// AdvanceCounts returns the per-level entry counts for judged rounds,
// keyed by the level being entered.
func (fc FormatConfig) AdvanceCounts(d domain.Discipline) map[domain.Level]int {
	df := fc.Kata
	if d.IsKumite() {
		df = fc.Kumite
	}
	counts := make(map[domain.Level]int)
	for _, lf := range df.Levels {
		if lf.Advance > 0 {
			counts[domain.Level(lf.Name)] = lf.Advance
		}
	}
	return counts
}

// BronzePolicy returns the configured Kumite bronze policy.
func (fc FormatConfig) BronzePolicy() domain.BronzePolicy {
	if fc.Kumite.BronzePolicy == "" {
		return domain.BronzeShared
	}
	return domain.BronzePolicy(fc.Kumite.BronzePolicy)
}

// validateSemantics checks constraints struct tags cannot express: unique
// level names within a progression and a consolation level distinct from
// the main levels.
func (fc FormatConfig) validateSemantics() error {
	for _, df := range []struct {
		name   string
		format DisciplineFormat
	}{{"kata", fc.Kata}, {"kumite", fc.Kumite}} {
		seen := make(map[string]bool, len(df.format.Levels))
		for _, lf := range df.format.Levels {
			if seen[lf.Name] {
				return fmt.Errorf("%s: duplicate level %q", df.name, lf.Name)
			}
			seen[lf.Name] = true
		}
		if c := df.format.Consolation; c != "" && seen[c] {
			return fmt.Errorf("%s: consolation level %q is already a main level", df.name, c)
		}
	}
	return nil
}
