// Package scheduler implements the SM-2 spaced-repetition transition as a
// pure function, independent of storage or HTTP concerns.
package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/calendar"
)

const (
	EaseFloor      = 1.3
	EaseInit       = 2.5
	IntervalInit   = 1
	MaxIntervalDays = 36500
	MatureThreshold = 21
)

// CardState is the scheduler's view of a MemoryCard: ease, interval, reps,
// due date and last-reviewed timestamp, with no storage concerns attached.
type CardState struct {
	Ease         float64
	IntervalDays int
	Reps         int
	DueDate      calendar.Date
	LastReviewed time.Time
}

// NewCardState synthesizes the initial state for an item reviewed for the
// first time, before any MemoryCard row exists.
func NewCardState() CardState {
	return CardState{Ease: EaseInit, IntervalDays: IntervalInit, Reps: 0}
}

// Transition applies one graded review to state, returning the next state.
// grade must be in [0,5]; the handler layer restricts the exposed subset to
// {0,2,3,5} per the UI contract, but the formula itself is defined over the
// full internal scale.
func Transition(state CardState, grade int, today calendar.Date, now time.Time) (CardState, error) {
	if grade < 0 || grade > 5 {
		return CardState{}, fmt.Errorf("scheduler: grade %d out of range [0,5]", grade)
	}

	delta := 0.1 - float64(5-grade)*(0.08+float64(5-grade)*0.02)
	newEase := state.Ease + delta
	if newEase < EaseFloor {
		newEase = EaseFloor
	}

	var newInterval, newReps int
	switch {
	case grade < 3:
		newInterval = 1
		newReps = 0
	case state.Reps == 0:
		newInterval = 1
		newReps = 1
	case state.Reps == 1:
		newInterval = 6
		newReps = 2
	default:
		grown := roundHalfAwayFromZero(float64(state.IntervalDays) * newEase)
		if grown > MaxIntervalDays {
			grown = MaxIntervalDays
		}
		if grown < 1 {
			grown = 1
		}
		newInterval = grown
		newReps = state.Reps + 1
	}

	return CardState{
		Ease:         newEase,
		IntervalDays: newInterval,
		Reps:         newReps,
		DueDate:      today.AddDays(newInterval),
		LastReviewed: now,
	}, nil
}

func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return int(math.Ceil(v - 0.5))
}

// Stage classifies a card state for observability; it is never persisted.
type Stage string

const (
	StageNew      Stage = "new"
	StageLearning Stage = "learning"
	StageMature   Stage = "mature"
)

// StageOf reports the nominal lifecycle stage of a card state. An interval
// of MatureThreshold days or more is mature whatever the rep count; below
// that, a state with reps > 0 is learning and one with zero reps (never
// reviewed, or just lapsed) is reported as new. Callers distinguish "no
// row yet" from this case separately.
func StageOf(state CardState) Stage {
	if state.IntervalDays >= MatureThreshold {
		return StageMature
	}
	if state.Reps > 0 {
		return StageLearning
	}
	return StageNew
}

// ReplayReview is one entry in a MemoryCard's append-only review history,
// used to reconstruct its state by replaying transitions in order.
type ReplayReview struct {
	Grade     int
	Today     calendar.Date
	Timestamp time.Time
}

// Replay reconstructs a card's state by applying each review in order,
// starting from NewCardState. Used to verify that the persisted state
// matches what the review log implies.
func Replay(reviews []ReplayReview) (CardState, error) {
	state := NewCardState()
	var err error
	for _, r := range reviews {
		state, err = Transition(state, r.Grade, r.Today, r.Timestamp)
		if err != nil {
			return CardState{}, err
		}
	}
	return state, nil
}
