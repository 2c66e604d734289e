package tracing

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/tailorbook/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tailorbook/http"

// GinMiddleware opens one server span per request. The span is renamed to the
// matched route once the handler has run.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ctx = withRequestBaggage(ctx, span)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)...)
		if kind := recordKind(route); kind != "" {
			span.SetAttributes(attribute.String("record.kind", kind))
		}
		if key := c.Param("key"); key != "" {
			span.SetAttributes(attribute.String("record.key", key))
		}

		if status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				span.RecordError(SafeError(lastErr.Err))
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func withRequestBaggage(ctx context.Context, span trace.Span) context.Context {
	requestID := obscontext.RequestIDFromContext(ctx)
	if requestID == "" {
		return ctx
	}
	span.SetAttributes(attribute.String("request_id", requestID))

	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

// recordKind maps /measurements/... and /api/bills/... to their kind.
func recordKind(route string) string {
	segments := strings.Split(strings.TrimPrefix(route, "/"), "/")
	if len(segments) > 0 && segments[0] == "api" {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return ""
	}
	switch segments[0] {
	case "measurements":
		return "measurement"
	case "bills":
		return "bill"
	default:
		return ""
	}
}
