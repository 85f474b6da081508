package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// contextFields are the identifiers handlers and middleware store on the gin context.
var contextFields = map[string]string{
	"requestId": "request_id",
	"userId":    "user_id",
	"sessionId": "session_id",
	"cvId":      "cv_id",
	"exportId":  "export_id",
}

// Error aborts the request with the error envelope. Client errors are logged at warn
// level and server errors at error level.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
		"route":   c.FullPath(),
		"method":  c.Request.Method,
	}
	for key, field := range contextFields {
		if v := c.GetString(key); v != "" {
			fields[field] = v
		}
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
