package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saathi-inc/saathi/internal/shared/constants"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// skipLogPaths are probed constantly and would drown out real traffic.
var skipLogPaths = []string{"/health", "/metrics"}

func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		status := c.Writer.Status()
		if status < 400 && shouldSkipLog(path) {
			return
		}

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"query", c.Request.URL.RawQuery,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"body_size", c.Writer.Size(),
		}

		if requestID := c.GetString(constants.ContextKeyRequestID); requestID != "" {
			args = append(args, "request_id", requestID)
		}

		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("HTTP request completed with server error", args...)
		case status >= 400:
			log.Warnw("HTTP request completed with client error", args...)
		default:
			log.Debugw("HTTP request completed successfully", args...)
		}
	}
}

func shouldSkipLog(path string) bool {
	for _, skip := range skipLogPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}
