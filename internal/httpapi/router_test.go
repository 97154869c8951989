package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/jlpt-tutor/tutor-service/internal/httpapi"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/progress"
	"github.com/jlpt-tutor/tutor-service/internal/scheduler"
	"github.com/jlpt-tutor/tutor-service/internal/session"
	"github.com/jlpt-tutor/tutor-service/internal/speech"
	"github.com/jlpt-tutor/tutor-service/internal/store"
	"github.com/jlpt-tutor/tutor-service/internal/tutor"
	"github.com/jlpt-tutor/tutor-service/internal/tutor/ollamaclient"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestRouter wires every handler against a fresh in-memory SQLite
// store, the same way cmd/server/main.go wires them against postgres.
// ollamaBaseURL may be empty: the tutor/health endpoints then simply
// report the upstream as unreachable, same as a cold-started Ollama.
func newTestRouter(t *testing.T, ollamaBaseURL string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	log, err := logger.New("development")
	require.NoError(t, err)

	st := store.New(db, log)
	require.NoError(t, st.AutoMigrateAll(context.Background(), store.DefaultNewCardsPerDay))

	sessions := session.New(st, log)
	progressAgg := progress.New(st, log)
	schedulerSvc := scheduler.New(st, log)
	ollama := ollamaclient.New(ollamaclient.Options{BaseURL: ollamaBaseURL, Model: "test-model"})
	tutorGateway := tutor.New(st, ollama, log)
	speechGateway := speech.New("piper-binary-not-on-path", "/dev/null", log)

	engine := httpapi.NewRouter(httpapi.RouterConfig{
		Log:      log,
		Health:   httpapi.NewHealthHandler(st, ollama, speechGateway, log),
		Cards:    httpapi.NewCardsHandler(schedulerSvc, sessions, log),
		Vocab:    httpapi.NewVocabHandler(st, log),
		Kanji:    httpapi.NewKanjiHandler(st, log),
		Tutor:    httpapi.NewTutorHandler(tutorGateway, log),
		TTS:      httpapi.NewTTSHandler(speechGateway, log),
		Progress: httpapi.NewProgressHandler(progressAgg, log),
		Settings: httpapi.NewSettingsHandler(st, log),
	})

	t.Cleanup(func() { routerUnderTest = nil })
	routerUnderTest = engine
	return db
}

// routerUnderTest is set by newTestRouter and read by doRequest; tests
// in this file run sequentially, never in parallel, so this is safe.
var routerUnderTest http.Handler

func doRequest(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	routerUnderTest.ServeHTTP(rec, req)
	return rec
}

func TestHealthReportsUnreachableOllamaAndMissingPiper(t *testing.T) {
	newTestRouter(t, "http://127.0.0.1:0")

	rec := doRequest(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["db"])
	require.Equal(t, false, body["ollama"])
	require.Equal(t, false, body["piper"])
}

func TestSettingsGetAndUpdateRoundtrip(t *testing.T) {
	newTestRouter(t, "")

	rec := doRequest(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodPost, "/api/settings", map[string]string{"new_cards_per_day": "15"})
	require.Equal(t, http.StatusOK, rec.Code)

	var settings map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	require.Equal(t, "15", settings[string(store.MetaKeyNewCardsPerDay)])
}

func TestSettingsUpdateRejectsNegativeIntake(t *testing.T) {
	newTestRouter(t, "")

	rec := doRequest(t, http.MethodPost, "/api/settings", map[string]string{"new_cards_per_day": "-3"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVocabAndKanjiListAndGet(t *testing.T) {
	db := newTestRouter(t, "")
	n5 := store.LevelN5
	require.NoError(t, db.Create(&store.VocabItem{Surface: "食べる", Reading: "たべる", Gloss: "to eat", Level: store.LevelN5}).Error)
	require.NoError(t, db.Create(&store.KanjiItem{Character: "水", Meanings: store.StringList{"water"}, Level: &n5, StrokeCount: 4}).Error)

	rec := doRequest(t, http.MethodGet, "/api/vocab?level=N5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var vocabPage struct {
		Items []store.VocabItem `json:"items"`
		Total int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &vocabPage))
	require.Equal(t, int64(1), vocabPage.Total)

	rec = doRequest(t, http.MethodGet, "/api/vocab/9999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, http.MethodGet, "/api/kanji?search=water", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var kanjiPage struct {
		Items []store.KanjiItem `json:"items"`
		Total int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kanjiPage))
	require.Equal(t, int64(1), kanjiPage.Total)
}

func TestCardsLifecycleThroughReview(t *testing.T) {
	db := newTestRouter(t, "")
	vocab := store.VocabItem{Surface: "話す", Reading: "はなす", Gloss: "to speak", Level: store.LevelN5}
	require.NoError(t, db.Create(&vocab).Error)

	rec := doRequest(t, http.MethodGet, "/api/cards/new?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var newItems []store.NewItemCandidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &newItems))
	require.Len(t, newItems, 1)

	rec = doRequest(t, http.MethodPost, "/api/cards/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	require.NotZero(t, opened.ID)

	rec = doRequest(t, http.MethodPost, "/api/cards/review", map[string]any{
		"item_type":  "vocab",
		"item_id":    vocab.ID,
		"score":      3,
		"session_id": opened.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodPost, "/api/cards/review", map[string]any{
		"item_type":  "vocab",
		"item_id":    vocab.ID,
		"score":      1,
		"session_id": opened.ID,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, http.MethodPatch, "/api/cards/sessions/"+strconv.FormatUint(uint64(opened.ID), 10), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestProgressReflectsReviews(t *testing.T) {
	db := newTestRouter(t, "")
	vocab := store.VocabItem{Surface: "読む", Reading: "よむ", Gloss: "to read", Level: store.LevelN5}
	require.NoError(t, db.Create(&vocab).Error)

	rec := doRequest(t, http.MethodPost, "/api/cards/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))

	rec = doRequest(t, http.MethodPost, "/api/cards/review", map[string]any{
		"item_type":  "vocab",
		"item_id":    vocab.ID,
		"score":      5,
		"session_id": opened.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var progressResp struct {
		StreakDays  int     `json:"streak_days"`
		AccuracyPct float64 `json:"accuracy_pct"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progressResp))
	require.Equal(t, 1, progressResp.StreakDays)
	require.Equal(t, 100.0, progressResp.AccuracyPct)
}

