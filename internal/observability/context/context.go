package context

import (
	"context"
	"strings"

	"github.com/smallbiznis/tailorbook/pkg/telemetry/correlation"
)

type requestIDKey struct{}

// WithRequestID stores the inbound request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}

// CorrelationIDFromContext returns the correlation id set by the request
// middleware, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	return correlation.ExtractCorrelationID(ctx)
}
