// Package progress computes streak, accuracy, per-level maturity, and a
// forward-looking review forecast from the store.
package progress

import (
	"context"

	"github.com/jlpt-tutor/tutor-service/internal/calendar"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
)

type Aggregator struct {
	store *store.Store
	log   *logger.Logger
}

func New(st *store.Store, baseLog *logger.Logger) *Aggregator {
	return &Aggregator{store: st, log: baseLog.With("component", "ProgressAggregator")}
}

// Snapshot is the full progress structure returned by GET /api/progress.
type Snapshot struct {
	StreakDays     int
	AccuracyPct    float64
	LevelStats     []store.LevelStat
	ForecastDays   []store.ForecastDay
}

func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	today := calendar.Today()

	dates, err := a.store.DistinctReviewDates(ctx)
	if err != nil {
		return nil, err
	}
	streak := computeStreak(dates, today)

	correct, total, err := a.store.AccuracyTotals(ctx)
	if err != nil {
		return nil, err
	}
	accuracy := 0.0
	if total > 0 {
		accuracy = 100 * float64(correct) / float64(total)
	}

	levelStats, err := a.store.LevelStats(ctx, today)
	if err != nil {
		return nil, err
	}

	forecast, err := a.store.Forecast(ctx, today)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		StreakDays:   streak,
		AccuracyPct:  accuracy,
		LevelStats:   levelStats,
		ForecastDays: forecast,
	}, nil
}

// computeStreak finds the longest unbroken chain of consecutive local
// dates, counting back from today, on each of which a review happened.
// Today with zero reviews so far does not break the streak: the chain is
// counted starting from the most recent date with at least one review
// that is either today or yesterday.
func computeStreak(dates []calendar.Date, today calendar.Date) int {
	if len(dates) == 0 {
		return 0
	}
	set := make(map[calendar.Date]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}

	cursor := today
	if !set[cursor] {
		yesterday := today.AddDays(-1)
		if !set[yesterday] {
			return 0
		}
		cursor = yesterday
	}

	streak := 0
	for set[cursor] {
		streak++
		cursor = cursor.AddDays(-1)
	}
	return streak
}
