package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/merlin-energy/truequote/internal/logging"
)

// TraceHeader carries the request's trace id. A client-supplied value is
// reused.
const TraceHeader = "X-Trace-Id"

// requestLogger attaches a logger and trace id to each request context and
// logs the completed request.
func requestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		l := logging.ComponentLogger(base, "api")
		ctx := logging.ContextWithTraceID(l.WithContext(c.Request.Context()), traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, traceID)

		c.Next()

		status := c.Writer.Status()
		event := l.Info()
		if status >= 500 {
			event = l.Error()
		}
		event.
			Str("trace_id", traceID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
