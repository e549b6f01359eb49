package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-reviewer/internal/shared/telemetry"
)

// ErrorCodeHeader carries the stable error code alongside the detail body.
const ErrorCodeHeader = "X-Error-Code"

// ErrorResponse is the single error envelope returned to callers.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Error logs the failure and aborts the request with {"detail": message}.
// The code is exposed in a header and kept on the context for request logs.
func Error(c *gin.Context, status int, code, message string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.Set("errorCode", code)
	c.Header(ErrorCodeHeader, code)
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: message})
}
