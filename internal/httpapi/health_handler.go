package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/speech"
	"github.com/jlpt-tutor/tutor-service/internal/store"
	"github.com/jlpt-tutor/tutor-service/internal/tutor/ollamaclient"
)

type HealthHandler struct {
	store  *store.Store
	ollama *ollamaclient.Client
	speech *speech.Gateway
	log    *logger.Logger
}

func NewHealthHandler(st *store.Store, ollama *ollamaclient.Client, sp *speech.Gateway, baseLog *logger.Logger) *HealthHandler {
	return &HealthHandler{store: st, ollama: ollama, speech: sp, log: baseLog.With("handler", "Health")}
}

type healthResponse struct {
	DB            bool   `json:"db"`
	Ollama        bool   `json:"ollama"`
	Piper         bool   `json:"piper"`
	SchemaVersion string `json:"schema_version"`
}

func (h *HealthHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	version, err := h.store.GetMeta(ctx, store.MetaKeySchemaVersion)
	dbOK := err == nil
	if err != nil {
		h.log.Warn("health check: store probe failed", "error", err)
	}

	RespondOK(c, healthResponse{
		DB:            dbOK,
		Ollama:        h.ollama.Healthy(ctx),
		Piper:         h.speech.Available(),
		SchemaVersion: version,
	})
}
