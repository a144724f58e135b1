package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurogarden-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachRequestContext stores trace, request and item ids on the request context and echoes
// the ids back as headers. An active otel span wins over a caller-supplied trace id.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &ctxutil.RequestData{
			TraceID:   traceID(c),
			RequestID: strings.TrimSpace(c.GetHeader(headerRequestID)),
			ItemID:    c.Param("id"),
		}
		if rd.RequestID == "" {
			rd.RequestID = ulid.Make().String()
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Writer.Header().Set(headerTraceID, rd.TraceID)
		c.Writer.Header().Set(headerRequestID, rd.RequestID)
		c.Next()
	}
}

func traceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id := strings.TrimSpace(c.GetHeader(headerTraceID)); id != "" {
		return id
	}
	return ulid.Make().String()
}
