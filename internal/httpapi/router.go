package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jlpt-tutor/tutor-service/internal/logger"
)

// RouterConfig wires every handler this service exposes into one gin
// engine via dependency injection.
type RouterConfig struct {
	Log      *logger.Logger
	Health   *HealthHandler
	Cards    *CardsHandler
	Vocab    *VocabHandler
	Kanji    *KanjiHandler
	Tutor    *TutorHandler
	TTS      *TTSHandler
	Progress *ProgressHandler
	Settings *SettingsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("jlpt-tutor-service"))
	engine.Use(AttachRequestContext(cfg.Log))
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", requestIDHeader},
	}))

	api := engine.Group("/api")
	{
		api.GET("/health", cfg.Health.Get)

		api.GET("/cards/due", cfg.Cards.Due)
		api.GET("/cards/new", cfg.Cards.New)
		api.POST("/cards/review", cfg.Cards.Review)
		api.POST("/cards/sessions", cfg.Cards.OpenSession)
		api.PATCH("/cards/sessions/:id", cfg.Cards.CloseSession)

		api.GET("/vocab", cfg.Vocab.List)
		api.GET("/vocab/:id", cfg.Vocab.Get)

		api.GET("/kanji", cfg.Kanji.List)
		api.GET("/kanji/:character", cfg.Kanji.Get)

		api.POST("/tutor/chat", cfg.Tutor.Chat)
		api.POST("/tts", cfg.TTS.Synthesize)

		api.GET("/progress", cfg.Progress.Get)

		api.GET("/settings", cfg.Settings.Get)
		api.POST("/settings", cfg.Settings.Update)
	}

	return engine
}
