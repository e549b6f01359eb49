package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cv-reviewer/internal/shared/telemetry"
)

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

		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"status":            c.Writer.Status(),
			"status_transition": c.GetString("statusTransition"),
			"duration_ms":       float64(latency.Microseconds()) / 1000.0,
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if name := c.GetString("fileName"); name != "" {
			fields["file_name"] = name
		}
		if size, ok := c.Get("fileSize"); ok {
			fields["file_size"] = size
		}
		if code := c.GetString("errorCode"); code != "" {
			fields["error_code"] = code
		}
		telemetry.Info("request.complete", fields)
	}
}
