package server

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"peaceproc/internal/logging"
	"peaceproc/internal/services"
)

// HeaderRequestID carries the correlation id in both directions.
const HeaderRequestID = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", time.Since(start)),
			logging.String(logging.FieldEventType, "http_request"),
		}
		reqLogger := logging.WithContext(c.Request.Context(), logger)
		switch {
		case status >= 500:
			reqLogger.Warn("request failed", logging.Args(attrs...)...)
		case c.Request.URL.Path == "/health":
			reqLogger.Debug("request served", logging.Args(attrs...)...)
		default:
			reqLogger.Info("request served", logging.Args(attrs...)...)
		}
	}
}
