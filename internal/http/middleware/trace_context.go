package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/coursegen-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTraceContext stores ctxutil.TraceData on the request so generation
// logs, spans and history rows can be correlated with the HTTP call.
// Caller ids that fail ctxutil.CleanID are replaced. The otelgin span, when
// present, wins over a caller-supplied trace id.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		td := &ctxutil.TraceData{
			TraceID:   ctxutil.SpanTraceID(ctx),
			RequestID: ctxutil.CleanID(c.GetHeader(headerRequestID)),
			Origin:    ctxutil.OriginHTTP,
			Client:    c.ClientIP(),
		}
		if td.RequestID == "" {
			td.RequestID = uuid.New().String()
		}
		if td.TraceID == "" {
			td.TraceID = ctxutil.CleanID(c.GetHeader(headerTraceID))
		}
		if td.TraceID == "" {
			td.TraceID = uuid.New().String()
		}
		trace.SpanFromContext(ctx).SetAttributes(td.Attributes()...)

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)
		c.Next()
	}
}
