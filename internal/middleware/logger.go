package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/listings/api/internal/logger"
)

// LoggerKey is the gin context key holding the request-scoped logger.
const LoggerKey = "logger"

// Logger stores a request-scoped child logger in the context and logs one
// line per request once it completes. Health checks are logged at debug level.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		c.Set(LoggerKey, requestLogger)

		c.Next()

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		// Uploads dominate request sizes, so record what came in.
		if c.Request.ContentLength > 0 {
			fields["content_type"] = c.ContentType()
			fields["content_length"] = c.Request.ContentLength
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case status >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		case strings.HasPrefix(c.Request.URL.Path, "/health"):
			requestLogger.Debug("Health check", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger returns the request-scoped logger, or nil outside the Logger
// middleware.
func GetLogger(c *gin.Context) *logger.Logger {
	if log, ok := c.Get(LoggerKey); ok {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}
