package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jlpt-tutor/tutor-service/internal/apperr"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
)

// errorBody is the structured 4xx/5xx payload this service's error
// contract requires: {"detail": "..."}.
type errorBody struct {
	Detail string `json:"detail"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondError maps an apperr code to its HTTP status and writes the
// {"detail": "..."} body. Unrecognized errors are treated as internal.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	status, detail := statusAndDetail(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "error", err, "path", c.FullPath())
	}
	c.JSON(status, errorBody{Detail: detail})
}

func statusAndDetail(err error) (int, string) {
	code := apperr.CodeOf(err)
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest, err.Error()
	case apperr.CodeNotFound:
		return http.StatusNotFound, err.Error()
	case apperr.CodeIntegrity:
		return http.StatusConflict, err.Error()
	case apperr.CodeUnavailable:
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
