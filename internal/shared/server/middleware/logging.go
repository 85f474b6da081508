package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/telemetry"
)

const (
	sessionIDKey = "sessionId"
	cvIDKey      = "cvId"
	exportIDKey  = "exportId"
)

// SetSessionID records the editing session a request touched, for the request log.
func SetSessionID(c *gin.Context, id string) { c.Set(sessionIDKey, id) }

// SetCVID records the saved CV a request touched.
func SetCVID(c *gin.Context, id string) { c.Set(cvIDKey, id) }

// SetExportID records the export a request produced or served.
func SetExportID(c *gin.Context, id string) { c.Set(exportIDKey, id) }

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"is_guest":    IsGuest(c),
			"session_id":  stringFromContext(c, sessionIDKey),
			"cv_id":       stringFromContext(c, cvIDKey),
			"export_id":   stringFromContext(c, exportIDKey),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
