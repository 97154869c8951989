package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/speech"
)

type TTSHandler struct {
	gateway *speech.Gateway
	log     *logger.Logger
}

func NewTTSHandler(gw *speech.Gateway, baseLog *logger.Logger) *TTSHandler {
	return &TTSHandler{gateway: gw, log: baseLog.With("handler", "TTS")}
}

type ttsRequest struct {
	Text string `json:"text"`
}

func (h *TTSHandler) Synthesize(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, apperr.Validation("TTSHandler.Synthesize", "invalid request body"))
		return
	}

	wav, err := h.gateway.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Data(200, "audio/wav", wav)
}
