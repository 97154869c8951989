package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListVocabFiltersByLevelAndSearch(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	seedVocab(t, st, LevelN5, "食べる", "たべる", "to eat")
	seedVocab(t, st, LevelN5, "飲む", "のむ", "to drink")
	seedVocab(t, st, LevelN4, "走る", "はしる", "to run")

	n5 := LevelN5
	items, total, err := st.ListVocab(ctx, ListVocabParams{Level: &n5, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	items, total, err = st.ListVocab(ctx, ListVocabParams{Search: "eat", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "食べる", items[0].Surface)
}

func TestListVocabPaginates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	for i := 0; i < 5; i++ {
		seedVocab(t, st, LevelN5, string(rune('a'+i)), "r", "g")
	}

	items, total, err := st.ListVocab(ctx, ListVocabParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, items, 2)

	items, _, err = st.ListVocab(ctx, ListVocabParams{Page: 3, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestGetVocabByIDNotFound(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.GetVocabByID(ctx, nil, 9999)
	require.Error(t, err)
}
