package tutor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
	"github.com/jlpt-tutor/tutor-service/internal/tutor/ollamaclient"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestGateway(t *testing.T, ollamaURL string) *Gateway {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	log, err := logger.New("development")
	require.NoError(t, err)

	st := store.New(db, log)
	require.NoError(t, st.AutoMigrateAll(context.Background(), store.DefaultNewCardsPerDay))

	client := ollamaclient.New(ollamaclient.Options{BaseURL: ollamaURL, Model: "test-model"})
	return New(st, client, log)
}

func TestStreamRelaysThreeChunkFixture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, c := range []string{"を", " marks", " the object."} {
			fmt.Fprintf(w, `{"response":%q,"done":false}`+"\n", c)
			flusher.Flush()
		}
		fmt.Fprint(w, `{"response":"","done":true}`+"\n")
		flusher.Flush()
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL)
	events, streamID := gw.Stream(context.Background(), ModeChat, "何を勉強しましょうか")
	require.NotEqual(t, uuid.Nil, streamID)

	var tokens []string
	for event := range events {
		require.NoError(t, event.Err)
		tokens = append(tokens, event.Token)
	}
	require.Equal(t, []string{"を", " marks", " the object."}, tokens)
}

func TestStreamSurfacesModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL)
	events, _ := gw.Stream(context.Background(), ModeChat, "hello")

	var lastErr error
	for event := range events {
		if event.Err != nil {
			lastErr = event.Err
		}
	}
	var modelMissing *ollamaclient.ErrModelMissing
	require.ErrorAs(t, lastErr, &modelMissing)
}

func TestStreamRejectsInvalidMode(t *testing.T) {
	gw := newTestGateway(t, "http://127.0.0.1:1")
	events, _ := gw.Stream(context.Background(), Mode("BOGUS"), "hello")

	event := <-events
	require.Error(t, event.Err)
	_, more := <-events
	require.False(t, more)
}

func TestStreamCancelsOnContextDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, `{"response":"first","done":false}`+"\n")
		flusher.Flush()
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	gw := newTestGateway(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	events, _ := gw.Stream(ctx, ModeChat, "hello")

	first := <-events
	require.NoError(t, first.Err)
	require.Equal(t, "first", first.Token)
	cancel()

	for range events {
		// drain until closed; cancellation must not hang the goroutine.
	}
}
