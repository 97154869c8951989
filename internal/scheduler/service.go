package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/calendar"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
)

// ValidGrades are the only grades the HTTP surface accepts. The
// transition formula itself is defined over the wider [0,5] scale; this
// is the handler-facing restriction the client UI is built against.
var ValidGrades = map[int]bool{0: true, 2: true, 3: true, 5: true}

type Service struct {
	store *store.Store
	log   *logger.Logger
}

func New(st *store.Store, baseLog *logger.Logger) *Service {
	return &Service{store: st, log: baseLog.With("component", "Scheduler")}
}

// DueCards returns today's due cards, already joined with their items.
func (s *Service) DueCards(ctx context.Context, level *store.Level, kind *store.ItemKind, limit int) ([]store.ResolvedCard, error) {
	return s.store.SelectDueCards(ctx, level, kind, calendar.Today(), limit)
}

// NewItems returns items with no MemoryCard yet, limit already reduced to
// respect whatever remains of today's intake cap.
func (s *Service) NewItems(ctx context.Context, level *store.Level, kind *store.ItemKind, requestedLimit int) ([]store.NewItemCandidate, error) {
	effectiveLimit, err := s.effectiveIntakeLimit(ctx, requestedLimit)
	if err != nil {
		return nil, err
	}
	if effectiveLimit <= 0 {
		return []store.NewItemCandidate{}, nil
	}
	return s.store.SelectNewItems(ctx, level, kind, effectiveLimit)
}

// effectiveIntakeLimit clamps requestedLimit to what's left of today's
// new_cards_per_day cap. Overdue due cards are never subject to this cap;
// only new-card intake is.
func (s *Service) effectiveIntakeLimit(ctx context.Context, requestedLimit int) (int, error) {
	dailyCap, err := s.store.GetMetaInt(ctx, store.MetaKeyNewCardsPerDay)
	if err != nil {
		return 0, err
	}
	used, err := s.store.CountCardsCreatedOn(ctx, calendar.Today())
	if err != nil {
		return 0, err
	}
	remaining := dailyCap - int(used)
	if remaining < 0 {
		remaining = 0
	}
	if requestedLimit < remaining {
		return requestedLimit, nil
	}
	return remaining, nil
}

// ReviewInput is one graded review submission.
type ReviewInput struct {
	ItemKind  store.ItemKind
	ItemID    uint
	Grade     int
	SessionID uint
}

// ReviewOutput is what the review endpoint hands back.
type ReviewOutput struct {
	Card             store.MemoryCard
	SessionCorrect   int
	SessionIncorrect int
}

// SubmitReview applies one graded review: loads or synthesizes the
// card's prior state, runs it through the pure transition, and persists
// the result, the new ReviewEvent, and the session counters atomically.
func (s *Service) SubmitReview(ctx context.Context, in ReviewInput) (*ReviewOutput, error) {
	if !in.ItemKind.Valid() {
		return nil, apperr.Validation("Scheduler.SubmitReview", "item_type must be vocab or kanji")
	}
	if !ValidGrades[in.Grade] {
		return nil, apperr.Validation("Scheduler.SubmitReview", "score must be one of 0,2,3,5")
	}

	now := store.Now()
	today := calendar.FromTime(now)

	existing, err := s.store.GetCard(ctx, nil, in.ItemKind, in.ItemID)
	cardExists := true
	var prior CardState
	var cardID uint
	var createdAt time.Time

	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			cardExists = false
			prior = NewCardState()
			createdAt = now
		} else {
			return nil, err
		}
	} else {
		cardExists = true
		cardID = existing.ID
		createdAt = existing.CreatedAt
		prior = CardState{
			Ease:         existing.EaseFactor,
			IntervalDays: existing.IntervalDays,
			Reps:         existing.Reps,
			DueDate:      existing.DueDate,
		}
		if existing.LastReviewed != nil {
			prior.LastReviewed = *existing.LastReviewed
		}
	}

	next, err := Transition(prior, in.Grade, today, now)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeValidation, "Scheduler.SubmitReview", err)
	}

	card := store.MemoryCard{
		ID:           cardID,
		ItemKind:     in.ItemKind,
		ItemID:       in.ItemID,
		EaseFactor:   next.Ease,
		IntervalDays: next.IntervalDays,
		Reps:         next.Reps,
		DueDate:      next.DueDate,
		LastReviewed: &next.LastReviewed,
		CreatedAt:    createdAt,
	}

	result, err := s.store.ReviewTransaction(ctx, cardExists, card, in.SessionID, in.Grade, now)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{
		Card:             result.Card,
		SessionCorrect:   result.SessionCorrect,
		SessionIncorrect: result.SessionIncorrect,
	}, nil
}

// VerifyReplay is used by tests (and could back an admin diagnostic) to
// check that replaying a card's ReviewEvents reconstructs its persisted
// state exactly.
func (s *Service) VerifyReplay(ctx context.Context, cardID uint, persisted store.MemoryCard) error {
	events, err := s.store.ReviewEventsForCard(ctx, cardID)
	if err != nil {
		return err
	}
	reviews := make([]ReplayReview, 0, len(events))
	for _, e := range events {
		reviews = append(reviews, ReplayReview{
			Grade:     e.Grade,
			Today:     calendar.FromTime(e.Timestamp),
			Timestamp: e.Timestamp,
		})
	}
	replayed, err := Replay(reviews)
	if err != nil {
		return err
	}
	if replayed.Ease != persisted.EaseFactor || replayed.IntervalDays != persisted.IntervalDays || replayed.Reps != persisted.Reps {
		return fmt.Errorf("scheduler: replayed state %+v does not match persisted card %+v", replayed, persisted)
	}
	return nil
}
