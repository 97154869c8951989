package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jlpt-tutor/tutor-service/internal/logger"
)

const requestIDHeader = "X-Request-Id"

// AttachRequestContext stamps every request with a request id (echoed
// back to the client) and logs its completion with the scoped logger.
// The teacher's equivalent middleware also threads per-user auth
// context; this service drops that since it is explicitly single-user.
func AttachRequestContext(baseLog *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		reqLog := baseLog.With("request_id", requestID, "method", c.Request.Method, "path", c.FullPath())
		c.Set("logger", reqLog)

		c.Next()

		reqLog.Debug("request completed", "status", c.Writer.Status())
	}
}
