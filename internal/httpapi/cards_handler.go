package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/scheduler"
	"github.com/jlpt-tutor/tutor-service/internal/session"
	"github.com/jlpt-tutor/tutor-service/internal/store"
)

type CardsHandler struct {
	scheduler *scheduler.Service
	sessions  *session.Tracker
	log       *logger.Logger
}

func NewCardsHandler(sched *scheduler.Service, sess *session.Tracker, baseLog *logger.Logger) *CardsHandler {
	return &CardsHandler{scheduler: sched, sessions: sess, log: baseLog.With("handler", "Cards")}
}

func parseOptionalLevel(c *gin.Context) (*store.Level, error) {
	raw := c.Query("level")
	if raw == "" {
		return nil, nil
	}
	lvl := store.Level(raw)
	if !lvl.Valid() {
		return nil, apperr.Validation("parseOptionalLevel", "level must be one of N5,N4,N3,N2,N1")
	}
	return &lvl, nil
}

func parseOptionalKind(c *gin.Context) (*store.ItemKind, error) {
	raw := c.Query("type")
	if raw == "" {
		return nil, nil
	}
	kind := store.ItemKind(raw)
	if !kind.Valid() {
		return nil, apperr.Validation("parseOptionalKind", "type must be vocab or kanji")
	}
	return &kind, nil
}

func parseLimit(c *gin.Context, def, max int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, apperr.Validation("parseLimit", "limit must be between 1 and "+strconv.Itoa(max))
	}
	return n, nil
}

func (h *CardsHandler) Due(c *gin.Context) {
	level, err := parseOptionalLevel(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	kind, err := parseOptionalKind(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	limit, err := parseLimit(c, 50, 200)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	cards, err := h.scheduler.DueCards(c.Request.Context(), level, kind, limit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, cards)
}

func (h *CardsHandler) New(c *gin.Context) {
	level, err := parseOptionalLevel(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	kind, err := parseOptionalKind(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	limit, err := parseLimit(c, 20, 200)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	items, err := h.scheduler.NewItems(c.Request.Context(), level, kind, limit)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, items)
}

type reviewRequest struct {
	ItemType  string `json:"item_type"`
	ItemID    uint   `json:"item_id"`
	Score     int    `json:"score"`
	SessionID uint   `json:"session_id"`
}

type reviewResponse struct {
	Card             store.MemoryCard `json:"card"`
	NextDue          string            `json:"next_due"`
	SessionCorrect   int               `json:"session_correct"`
	SessionIncorrect int               `json:"session_incorrect"`
}

func (h *CardsHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, apperr.Validation("CardsHandler.Review", "invalid request body"))
		return
	}

	out, err := h.scheduler.SubmitReview(c.Request.Context(), scheduler.ReviewInput{
		ItemKind:  store.ItemKind(req.ItemType),
		ItemID:    req.ItemID,
		Grade:     req.Score,
		SessionID: req.SessionID,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	RespondOK(c, reviewResponse{
		Card:             out.Card,
		NextDue:          out.Card.DueDate.String(),
		SessionCorrect:   out.SessionCorrect,
		SessionIncorrect: out.SessionIncorrect,
	})
}

func (h *CardsHandler) OpenSession(c *gin.Context) {
	id, err := h.sessions.Open(c.Request.Context())
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondCreated(c, gin.H{"id": id})
}

func (h *CardsHandler) CloseSession(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		RespondError(c, h.log, apperr.Validation("CardsHandler.CloseSession", "invalid session id"))
		return
	}
	if err := h.sessions.Close(c.Request.Context(), uint(id)); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
