package tracing

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// Document fields that identify customers; never attached to spans.
var sensitiveKeys = []string{"password", "phone", "address", "name", "cookie", "authorization"}

// SafeAttributes drops attributes whose key names personal data.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		key := strings.ToLower(string(attr.Key))
		if isSensitive(key) {
			continue
		}
		out = append(out, attr)
	}
	return out
}

func isSensitive(key string) bool {
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// SafeError reduces err to its message's first line so wrapped payloads
// from storage errors do not leak into trace backends.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return errors.New(msg)
}

// ExtractContext reads W3C trace context and baggage from carrier.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
