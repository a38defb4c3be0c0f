package domain

import (
	"errors"
	"fmt"
)

// MinMiddleScores is the minimum number of scores that must survive
// trimming for a final score to be defined.
const MinMiddleScores = 3

// Invariant-violation errors. These disqualify a single entity or a single
// computation; they are never raised for ordinary incomplete data, which
// is represented by absent fields instead.
var (
	// ErrInsufficientScores indicates fewer than MinMiddleScores scores
	// would survive trimming, so no final score can be computed.
	ErrInsufficientScores = errors.New("insufficient judge scores after trimming")

	// ErrScoreOutOfRange indicates a judge score outside the legal bounds.
	ErrScoreOutOfRange = errors.New("judge score out of range")

	// ErrUnresolvedWinner indicates a completed match whose winner cannot
	// be identified among its participants.
	ErrUnresolvedWinner = errors.New("completed match has no resolvable winner")

	// ErrInvalidParticipants indicates a match with zero or more than two
	// participants.
	ErrInvalidParticipants = errors.New("match must have one or two participants")

	// ErrUnknownRoundKind indicates a ranking request with a RoundKind the
	// ranker does not recognize. This is caller misuse, fatal to the call.
	ErrUnknownRoundKind = errors.New("unknown round kind")

	// ErrUnknownLevel indicates a level that is not part of the category's
	// sequence.
	ErrUnknownLevel = errors.New("level not in category sequence")
)

// ScoreError wraps a scoring invariant violation with the entity and judge
// index it was detected at.
type ScoreError struct {
	// EntityID identifies the performance the violation belongs to. Empty
	// for stand-alone aggregation calls.
	EntityID string

	// Index is the position of the offending judge score, when applicable.
	Index int

	// Value is the offending score value, when applicable.
	Value float64

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface for ScoreError.
func (e *ScoreError) Error() string {
	if e.EntityID == "" {
		return fmt.Sprintf("score error: index=%d, value=%.2f, err=%v", e.Index, e.Value, e.Err)
	}
	return fmt.Sprintf("score error: entity=%s, index=%d, value=%.2f, err=%v", e.EntityID, e.Index, e.Value, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *ScoreError) Unwrap() error { return e.Err }

// RankError wraps a ranking invariant violation with the entity it was
// detected on.
type RankError struct {
	// EntityID identifies the offending entity.
	EntityID string

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface for RankError.
func (e *RankError) Error() string {
	return fmt.Sprintf("rank error: entity=%s, err=%v", e.EntityID, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *RankError) Unwrap() error { return e.Err }
