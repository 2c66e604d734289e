package correlation

import (
	"context"
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// Header carries a caller-supplied correlation id across services.
const Header = "X-Correlation-Id"

// MaxLength bounds ids accepted from callers.
const MaxLength = 128

type correlationKey struct{}

// Sanitize returns id trimmed, or "" when it is too long or carries
// characters that would corrupt a log line.
func Sanitize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxLength {
		return ""
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return ""
		}
	}
	return id
}

// ExtractCorrelationID returns the id stored on ctx, or "".
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// ContextWithCorrelationID stores id on ctx. Unusable ids leave ctx as is.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id = Sanitize(id); id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID keeps an existing id or mints a ULID.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := ExtractCorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := ulid.Make().String()
	return context.WithValue(ctx, correlationKey{}, id), id
}
