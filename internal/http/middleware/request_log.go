package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurogarden-backend/internal/platform/ctxutil"
	"github.com/yungbote/neurogarden-backend/internal/platform/logger"
)

// RequestLogger writes one line per request. Routes in quiet log at debug when they succeed.
func RequestLogger(log *logger.Logger, quiet ...string) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	quietRoutes := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietRoutes[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		fields = append(fields, ctxutil.LogFields(c.Request.Context())...)
		if rd := ctxutil.RequestDataFrom(c.Request.Context()); rd != nil && rd.ItemID != "" {
			fields = append(fields, "item_id", rd.ItemID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.Last().Error())
		}

		_, isQuiet := quietRoutes[route]
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case isQuiet:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
