package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
	"github.com/jlpt-tutor/tutor-service/internal/store"
)

type VocabHandler struct {
	store *store.Store
	log   *logger.Logger
}

func NewVocabHandler(st *store.Store, baseLog *logger.Logger) *VocabHandler {
	return &VocabHandler{store: st, log: baseLog.With("handler", "Vocab")}
}

type pageResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

func parsePagination(c *gin.Context) (page, pageSize int, err error) {
	page = 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, apperr.Validation("parsePagination", "page must be >= 1")
		}
	}
	pageSize = 20
	if raw := c.Query("limit"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 || pageSize > 200 {
			return 0, 0, apperr.Validation("parsePagination", "limit must be between 1 and 200")
		}
	}
	return page, pageSize, nil
}

func (h *VocabHandler) List(c *gin.Context) {
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

	items, total, err := h.store.ListVocab(c.Request.Context(), store.ListVocabParams{
		Level:    level,
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, pageResponse[store.VocabItem]{Items: items, Total: total})
}

func (h *VocabHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, h.log, apperr.Validation("VocabHandler.Get", "invalid id"))
		return
	}
	item, err := h.store.GetVocabByID(c.Request.Context(), nil, uint(id))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, item)
}
