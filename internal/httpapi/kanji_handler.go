package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
)

type KanjiHandler struct {
	store *store.Store
	log   *logger.Logger
}

func NewKanjiHandler(st *store.Store, baseLog *logger.Logger) *KanjiHandler {
	return &KanjiHandler{store: st, log: baseLog.With("handler", "Kanji")}
}

func (h *KanjiHandler) List(c *gin.Context) {
	level, err := parseOptionalLevel(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	page, pageSize, err := parsePagination(c)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	items, total, err := h.store.ListKanji(c.Request.Context(), store.ListKanjiParams{
		Level:    level,
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, pageResponse[store.KanjiItem]{Items: items, Total: total})
}

func (h *KanjiHandler) Get(c *gin.Context) {
	character := c.Param("character")
	if character == "" {
		RespondError(c, h.log, apperr.Validation("KanjiHandler.Get", "character is required"))
		return
	}
	item, err := h.store.GetKanjiByCharacter(c.Request.Context(), nil, character)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, item)
}
