package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/tutor"
	"github.com/jlpt-tutor/tutor-service/internal/tutor/ollamaclient"
)

type TutorHandler struct {
	gateway *tutor.Gateway
	log     *logger.Logger
}

func NewTutorHandler(gw *tutor.Gateway, baseLog *logger.Logger) *TutorHandler {
	return &TutorHandler{gateway: gw, log: baseLog.With("handler", "Tutor")}
}

type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// Chat streams a tutor reply as server-sent events: one data: <token>\n\n
// frame per produced token, followed by a terminal data: [DONE]\n\n.
// Upstream failures are surfaced as a single data: {"error": "..."}\n\n
// frame, also followed by [DONE], rather than an HTTP error status,
// since by the time a failure is known the SSE headers are already
// committed.
func (h *TutorHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, apperr.Validation("TutorHandler.Chat", "invalid request body"))
		return
	}
	mode := tutor.Mode(req.Mode)
	if !mode.Valid() {
		RespondError(c, h.log, apperr.Validation("TutorHandler.Chat", "mode must be one of TEACH,QUIZ,EXPLAIN,CORRECT,CHAT"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		RespondError(c, h.log, apperr.Internal("TutorHandler.Chat", fmt.Errorf("response writer does not support flushing")))
		return
	}

	ctx := c.Request.Context()
	events, streamID := h.gateway.Stream(ctx, mode, req.Message)
	streamLog := h.log.With("stream_id", streamID.String())

	for {
		select {
		case <-ctx.Done():
			streamLog.Info("client disconnected mid-stream")
			return
		case event, more := <-events:
			if !more {
				fmt.Fprint(c.Writer, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
			if event.Err != nil {
				writeSSEError(c.Writer, event.Err)
				flusher.Flush()
				fmt.Fprint(c.Writer, "data: [DONE]\n\n")
				flusher.Flush()
				return
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", event.Token)
			flusher.Flush()
		}
	}
}

func writeSSEError(w http.ResponseWriter, err error) {
	payload, marshalErr := json.Marshal(map[string]string{"error": sseErrorMessage(err)})
	if marshalErr != nil {
		fmt.Fprintf(w, "data: {\"error\":\"internal\"}\n\n")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func sseErrorMessage(err error) string {
	var modelMissing *ollamaclient.ErrModelMissing
	if errors.As(err, &modelMissing) {
		return "model-missing:" + modelMissing.Model
	}
	var timedOut *ollamaclient.ErrStreamTimedOut
	if errors.As(err, &timedOut) {
		return "response-timed-out"
	}
	return "tutor-unavailable"
}
