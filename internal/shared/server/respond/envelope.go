package respond

import (
	"github.com/gin-gonic/gin"

	"career-gap-backend/internal/shared/telemetry"
)

// Envelope is the response body shared by every API route.
type Envelope struct {
	Success bool        `json:"success"`
	Cached  *bool       `json:"cached,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Success writes a successful envelope with the given status.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// SuccessCached writes a successful envelope carrying the cached flag.
func SuccessCached(c *gin.Context, status int, cached bool, data interface{}) {
	c.JSON(status, Envelope{Success: true, Cached: &cached, Data: data})
}

// Fail logs and aborts with a failure envelope. message is shown to callers; keep internal detail in fields.
func Fail(c *gin.Context, status int, message string, details interface{}, fields map[string]any) {
	logFields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	for k, v := range fields {
		logFields[k] = v
	}
	if status >= 500 {
		telemetry.Error("http.error", logFields)
	} else {
		telemetry.Warn("http.error", logFields)
	}

	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   message,
		Details: details,
	})
}
