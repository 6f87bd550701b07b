package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceAnnotations decorates the server span started by otelgin with the
// request ID and marks server errors. Must run after otelgin and RequestID.
func TraceAnnotations() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		span.SetAttributes(attribute.String("http.request_id", GetRequestID(c)))
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int64("http.response.size_bytes", int64(c.Writer.Size())))
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
	}
}
