package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// RankedResult is one line of a round's result list.
type RankedResult struct {
	// Position is the 1-based rank within the round.
	Position int `json:"position"`

	// EntityRef is the ID of the ranked performance or match.
	EntityRef string `json:"entity_ref"`

	// Label is the human-readable line: the competitor for a performance,
	// "A vs B" for a match.
	Label string `json:"label"`

	// Score is the final score, omitted while the entity is pending.
	Score *float64 `json:"score,omitempty"`

	// Place is the explicitly assigned place in a placement round, omitted
	// elsewhere.
	Place int `json:"place,omitempty"`
}

// RoundReport is the published view of one round: its full ranked result
// list and the subset that advanced to the next round.
type RoundReport struct {
	// RoundName is the level the round belongs to.
	RoundName Level `json:"round_name"`

	// Results lists every entity of the round in rank order.
	Results []RankedResult `json:"results"`

	// Advanced lists the competitor IDs that fed the next round, in rank
	// order. Empty for the terminal round and for rounds not yet closed.
	Advanced []string `json:"advanced,omitempty"`

	// Warnings lists entities excluded for invariant violations, so the
	// presentation layer can flag them without failing the report.
	Warnings []string `json:"warnings,omitempty"`
}

// FinalRanking is one podium entry. Place 3 may appear twice when bronze
// is shared.
type FinalRanking struct {
	Place     int    `json:"place"`
	EntityRef string `json:"entity_ref"`
	Label     string `json:"label"`
}

// Report is the regenerable snapshot of a category's round-by-round
// results. Regeneration always rebuilds the whole document from the
// current entity state and replaces the prior report; it never merges.
// Given unchanged underlying data, regeneration is byte-for-byte
// idempotent, which is why the document carries no timestamp.
type Report struct {
	// ID is derived from the fingerprint, so identical snapshots produce
	// identical reports.
	ID string `json:"id"`

	// CategoryID references the category the report describes.
	CategoryID string `json:"category_id"`

	// Fingerprint is the SHA-256 hash of the report content, used by
	// stores to detect no-op regenerations.
	Fingerprint string `json:"fingerprint"`

	// Rounds holds one entry per existing round, in progression order.
	Rounds []RoundReport `json:"rounds"`

	// FinalRankings is present only once the terminal round is closed.
	FinalRankings []FinalRanking `json:"final_rankings,omitempty"`
}

// ReportFingerprint hashes the content of a report deterministically.
// Two reports built from identical snapshots share a fingerprint.
func ReportFingerprint(categoryID string, rounds []RoundReport, final []FinalRanking) (string, error) {
	payload := struct {
		CategoryID    string         `json:"category_id"`
		Rounds        []RoundReport  `json:"rounds"`
		FinalRankings []FinalRanking `json:"final_rankings,omitempty"`
	}{categoryID, rounds, final}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("fingerprint report for %s: %w", categoryID, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
