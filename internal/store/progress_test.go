package store

import (
	"context"
	"testing"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/calendar"
	"github.com/stretchr/testify/require"
)

func TestAccuracyTotals(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	vocab := seedVocab(t, st, LevelN5, "雨", "あめ", "rain")

	session, err := st.OpenSession(ctx, time.Now())
	require.NoError(t, err)

	card := MemoryCard{ItemKind: ItemKindVocab, ItemID: vocab.ID, EaseFactor: 2.5, IntervalDays: 1, DueDate: calendar.Today(), CreatedAt: time.Now()}
	result, err := st.ReviewTransaction(ctx, false, card, session.ID, 5, time.Now())
	require.NoError(t, err)

	second := result.Card
	_, err = st.ReviewTransaction(ctx, true, second, session.ID, 0, time.Now())
	require.NoError(t, err)

	correct, total, err := st.AccuracyTotals(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), correct)
	require.Equal(t, int64(2), total)
}

func TestLevelStatsCountsMasteredAndDueToday(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	today := calendar.Today()

	v1 := seedVocab(t, st, LevelN5, "雪", "ゆき", "snow")
	v2 := seedVocab(t, st, LevelN5, "風", "かぜ", "wind")
	_ = seedVocab(t, st, LevelN5, "光", "ひかり", "light") // never reviewed: counts in Total, not Seen

	require.NoError(t, st.CreateCard(ctx, nil, &MemoryCard{ItemKind: ItemKindVocab, ItemID: v1.ID, EaseFactor: 2.5, IntervalDays: 30, DueDate: today.AddDays(30), CreatedAt: time.Now()}))
	require.NoError(t, st.CreateCard(ctx, nil, &MemoryCard{ItemKind: ItemKindVocab, ItemID: v2.ID, EaseFactor: 2.5, IntervalDays: 1, DueDate: today, CreatedAt: time.Now()}))

	stats, err := st.LevelStats(ctx, today)
	require.NoError(t, err)

	var n5 LevelStat
	for _, s := range stats {
		if s.Level == LevelN5 {
			n5 = s
		}
	}
	require.Equal(t, int64(3), n5.Total)
	require.Equal(t, int64(2), n5.Seen)
	require.Equal(t, int64(1), n5.Mastered)
	require.Equal(t, int64(1), n5.DueToday)
}

func TestForecastReturnsSevenDaysIncludingZeroes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	today := calendar.Today()

	days, err := st.Forecast(ctx, today)
	require.NoError(t, err)
	require.Len(t, days, 7)
	require.Equal(t, today, days[0].Date)
	require.Equal(t, int64(0), days[0].Count)
}
