package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/server/respond"
	"cv-builder/internal/shared/telemetry"
)

// Recovery turns a panic in a handler into a 500 envelope and one request.panic log line.
// Streams that already wrote headers are only logged.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("request.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"user_id":    UserIDFromContext(c),
				"session_id": stringFromContext(c, sessionIDKey),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
				"panic":      rec,
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "unexpected server error", nil)
		}()
		c.Next()
	}
}
