package httpapi_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jlpt-tutor/tutor-service/internal/httpapi"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
	"github.com/jlpt-tutor/tutor-service/internal/tutor"
	"github.com/jlpt-tutor/tutor-service/internal/tutor/ollamaclient"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTutorOnlyEngine(t *testing.T, ollamaURL string) http.Handler {
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
	gw := tutor.New(st, client, log)

	return httpapi.NewRouter(httpapi.RouterConfig{
		Log:      log,
		Health:   httpapi.NewHealthHandler(st, client, nil, log),
		Cards:    httpapi.NewCardsHandler(nil, nil, log),
		Vocab:    httpapi.NewVocabHandler(st, log),
		Kanji:    httpapi.NewKanjiHandler(st, log),
		Tutor:    httpapi.NewTutorHandler(gw, log),
		TTS:      httpapi.NewTTSHandler(nil, log),
		Progress: httpapi.NewProgressHandler(nil, log),
		Settings: httpapi.NewSettingsHandler(st, log),
	})
}

func TestTutorChatStreamsThreeChunkFixture(t *testing.T) {
	fakeOllama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for _, c := range []string{"を", " marks", " the object."} {
			fmt.Fprintf(w, `{"response":%q,"done":false}`+"\n", c)
			flusher.Flush()
		}
		fmt.Fprint(w, `{"response":"","done":true}`+"\n")
		flusher.Flush()
	}))
	defer fakeOllama.Close()

	engine := newTutorOnlyEngine(t, fakeOllama.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/tutor/chat", strings.NewReader(`{"message":"何を勉強しましょうか","mode":"CHAT"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "data: を\n\n")
	require.Contains(t, body, "data:  marks\n\n")
	require.Contains(t, body, "data:  the object.\n\n")
	require.Contains(t, body, "data: [DONE]\n\n")
}

func TestTutorChatSurfacesModelMissingAsSSEFrame(t *testing.T) {
	fakeOllama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer fakeOllama.Close()

	engine := newTutorOnlyEngine(t, fakeOllama.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/tutor/chat", strings.NewReader(`{"message":"hello","mode":"CHAT"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"error":"model-missing:test-model"`)
	require.Contains(t, body, "data: [DONE]\n\n")
}

func TestTutorChatRejectsInvalidMode(t *testing.T) {
	engine := newTutorOnlyEngine(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/tutor/chat", strings.NewReader(`{"message":"hello","mode":"BOGUS"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
