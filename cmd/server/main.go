package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jlpt-tutor/tutor-service/internal/config"
	"github.com/jlpt-tutor/tutor-service/internal/httpapi"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/progress"
	"github.com/jlpt-tutor/tutor-service/internal/scheduler"
	"github.com/jlpt-tutor/tutor-service/internal/session"
	"github.com/jlpt-tutor/tutor-service/internal/speech"
	"github.com/jlpt-tutor/tutor-service/internal/store"
	"github.com/jlpt-tutor/tutor-service/internal/tutor"
	"github.com/jlpt-tutor/tutor-service/internal/tutor/ollamaclient"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log, err := logger.New(config.GetEnv("LOG_MODE", "development", nil))
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Load(log)

	log.Info("connecting to postgres")
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("failed to access postgres connection pool", "error", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(16)

	st := store.New(db, log)
	if err := st.AutoMigrateAll(context.Background(), cfg.NewCardsPerDay); err != nil {
		log.Error("auto migration failed", "error", err)
		os.Exit(1)
	}

	sessions := session.New(st, log)
	if swept, err := sessions.SweepStale(context.Background()); err != nil {
		log.Warn("startup stale-session sweep failed", "error", err)
	} else if swept > 0 {
		log.Info("closed stale open sessions on startup", "count", swept)
	}

	progressAgg := progress.New(st, log)
	schedulerSvc := scheduler.New(st, log)

	ollama := ollamaclient.New(ollamaclient.Options{
		BaseURL: cfg.OllamaBaseURL,
		Model:   cfg.OllamaModel,
	})
	tutorGateway := tutor.New(st, ollama, log)
	speechGateway := speech.New(cfg.PiperBinary, cfg.PiperModelPath, log)

	router := httpapi.NewRouter(httpapi.RouterConfig{
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

	addr := fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server exited unexpectedly", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if _, err := sessions.SweepAll(shutdownCtx); err != nil {
		log.Warn("failed to sweep open sessions during shutdown", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
