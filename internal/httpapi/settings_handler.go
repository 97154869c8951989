package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
)

type SettingsHandler struct {
	store *store.Store
	log   *logger.Logger
}

func NewSettingsHandler(st *store.Store, baseLog *logger.Logger) *SettingsHandler {
	return &SettingsHandler{store: st, log: baseLog.With("handler", "Settings")}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.store.GetAllMeta(c.Request.Context())
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var updates map[string]string
	if err := c.ShouldBindJSON(&updates); err != nil {
		RespondError(c, h.log, apperr.Validation("SettingsHandler.Update", "invalid request body"))
		return
	}

	settings, err := h.store.UpdateMeta(c.Request.Context(), updates)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, settings)
}
