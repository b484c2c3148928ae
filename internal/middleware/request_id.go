package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/paperdeck-backend/internal/platform/ctxutil"
	"github.com/yungbote/paperdeck-backend/internal/platform/logger"
)

type RequestIDMiddleware struct {
	log *logger.Logger
}

func NewRequestIDMiddleware(log *logger.Logger) *RequestIDMiddleware {
	return &RequestIDMiddleware{log: log.With("Middleware", "RequestID")}
}

// Attach assigns every request a trace id, honoring an incoming
// X-Request-ID when the caller supplies one.
func (m *RequestIDMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{RequestID: requestID})
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
