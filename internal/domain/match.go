package domain

// MatchStatus tracks a Kumite match through its lifecycle.
type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

// Outcome is a participant's result in a completed match.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// ParticipantScore holds one side of a Kumite match: the competitor and
// the judged score components recorded for them.
type ParticipantScore struct {
	// CompetitorID references the competitor (or team) fighting.
	CompetitorID string `json:"competitor_id"`

	// Technical is the technical score component.
	Technical float64 `json:"technical"`

	// Performance is the performance score component.
	Performance float64 `json:"performance"`

	// Outcome is set when the match completes.
	Outcome Outcome `json:"outcome,omitempty"`
}

// Total returns the participant's combined score.
func (ps ParticipantScore) Total() float64 { return ps.Technical + ps.Performance }

// Match is a contest between at most two participants in one level of a
// Kumite category. A single-participant match is a bye and completes
// automatically in favor of its only participant.
type Match struct {
	// ID is the stable entity identifier.
	ID string `json:"id"`

	// CategoryID references the owning category.
	CategoryID string `json:"category_id"`

	// Level is the match level (Preliminary .. Final, or Bronze).
	Level Level `json:"level"`

	// Participants holds the at most two sides of the match.
	Participants []ParticipantScore `json:"participants"`

	// Status is the match lifecycle state.
	Status MatchStatus `json:"status"`

	// WinnerID references the winning competitor. Set only when Status is
	// MatchCompleted.
	WinnerID string `json:"winner_id,omitempty"`

	// Order is the bracket slot within the level, assigned at draw time.
	// It is the stable ranking tie-break.
	Order int `json:"order"`
}

var _ ScoredEntity = (*Match)(nil)

// EntityID implements ScoredEntity.
func (m *Match) EntityID() string { return m.ID }

// EntityLevel implements ScoredEntity.
func (m *Match) EntityLevel() Level { return m.Level }

// Seed implements ScoredEntity.
func (m *Match) Seed() int { return m.Order }

// Bye reports whether the match has a single participant.
func (m *Match) Bye() bool { return len(m.Participants) == 1 }

// Winner returns the winning participant once the match is completed and
// the recorded winner matches one of the participants.
func (m *Match) Winner() (ParticipantScore, bool) {
	if m.Status != MatchCompleted {
		return ParticipantScore{}, false
	}
	if m.Bye() {
		return m.Participants[0], true
	}
	for _, ps := range m.Participants {
		if ps.CompetitorID != "" && ps.CompetitorID == m.WinnerID {
			return ps, true
		}
	}
	return ParticipantScore{}, false
}

// Loser returns the defeated participant of a completed two-sided match.
// Byes have no loser.
func (m *Match) Loser() (ParticipantScore, bool) {
	if _, ok := m.Winner(); !ok || m.Bye() {
		return ParticipantScore{}, false
	}
	for _, ps := range m.Participants {
		if ps.CompetitorID != m.WinnerID {
			return ps, true
		}
	}
	return ParticipantScore{}, false
}

// FinalScore returns the winner's combined score for a resolved completed
// match. Unresolved or unfinished matches report no score.
func (m *Match) FinalScore() (float64, bool) {
	w, ok := m.Winner()
	if !ok {
		return 0, false
	}
	return w.Total(), true
}

// Placement always reports no explicit place; Kumite placement derives
// from match outcomes, not manual assignment.
func (m *Match) Placement() (int, bool) { return 0, false }

// Terminal reports whether the match has completed.
func (m *Match) Terminal() bool { return m.Status == MatchCompleted }

// Resolve returns ErrUnresolvedWinner when a nominally completed match has
// no winner identifiable among its participants. Such matches are excluded
// from ranking and advancement rather than guessed.
func (m *Match) Resolve() error {
	if len(m.Participants) == 0 || len(m.Participants) > 2 {
		return &RankError{EntityID: m.ID, Err: ErrInvalidParticipants}
	}
	if m.Status != MatchCompleted {
		return nil
	}
	if _, ok := m.Winner(); !ok {
		return &RankError{EntityID: m.ID, Err: ErrUnresolvedWinner}
	}
	return nil
}
