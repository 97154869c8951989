package store

import (
	"context"
	"testing"
	"time"

	"github.com/jlpt-tutor/tutor-service/internal/calendar"
	"github.com/stretchr/testify/require"
)

func TestCloseSessionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	session, err := st.OpenSession(ctx, time.Now())
	require.NoError(t, err)

	require.NoError(t, st.CloseSession(ctx, session.ID, time.Now()))
	first, err := st.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, first.EndedAt)
	firstEndedAt := *first.EndedAt

	// closing again must not error and must not move ended_at.
	require.NoError(t, st.CloseSession(ctx, session.ID, time.Now().Add(time.Hour)))
	second, err := st.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, firstEndedAt.Equal(*second.EndedAt))
}

func TestSweepStaleOpenSessionsOnlyTouchesOldSessions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	now := time.Now()

	fresh, err := st.OpenSession(ctx, now)
	require.NoError(t, err)
	stale, err := st.OpenSession(ctx, now.Add(-48*time.Hour))
	require.NoError(t, err)

	closed, err := st.SweepStaleOpenSessions(ctx, now, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	freshAfter, err := st.GetSession(ctx, fresh.ID)
	require.NoError(t, err)
	require.Nil(t, freshAfter.EndedAt)

	staleAfter, err := st.GetSession(ctx, stale.ID)
	require.NoError(t, err)
	require.NotNil(t, staleAfter.EndedAt)
}

func TestSweepOpenSessionsUsesLatestReviewTimestamp(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	vocab := seedVocab(t, st, LevelN5, "花", "はな", "flower")

	session, err := st.OpenSession(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	card := MemoryCard{ItemKind: ItemKindVocab, ItemID: vocab.ID, EaseFactor: 2.5, IntervalDays: 1, DueDate: calendar.Today(), CreatedAt: time.Now()}
	lastReviewTime := time.Now().Add(-10 * time.Minute)
	_, err = st.ReviewTransaction(ctx, false, card, session.ID, 3, lastReviewTime)
	require.NoError(t, err)

	closed, err := st.SweepOpenSessions(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	after, err := st.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, after.EndedAt)
	require.WithinDuration(t, lastReviewTime, *after.EndedAt, time.Second)
}
