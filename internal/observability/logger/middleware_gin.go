package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/tailorbook/internal/observability/context"
	"github.com/smallbiznis/tailorbook/pkg/telemetry/correlation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	RequestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
	usernameKey     = "username"
)

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier returns the error_type and error_code log fields.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware stamps request and correlation ids onto the request context
// and writes one http_request line once the handler chain returns.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := requestIDFrom(c)
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx = correlation.ContextWithCorrelationID(ctx, c.GetHeader(correlation.Header))
		ctx, correlationID := correlation.EnsureCorrelationID(ctx)
		c.Header(correlation.Header, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()

		ce := FromContext(c.Request.Context()).Check(requestLevel(route, status), "http_request")
		if ce == nil {
			return
		}

		fields := make([]zap.Field, 0, 12)
		fields = append(fields,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		)
		if key := c.Param("key"); key != "" {
			fields = append(fields, zap.String("record_key", key))
		}
		if user := c.GetString(usernameKey); user != "" {
			fields = append(fields, zap.String("user", user))
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, errorFields(cfg, last.Err, status)...)
		}

		ce.Write(fields...)
	}
}

func requestIDFrom(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(RequestIDHeader)); id != "" {
		return id
	}
	if id := c.GetString(requestIDKey); id != "" {
		return id
	}
	return uuid.NewString()
}

func errorFields(cfg MiddlewareConfig, err error, status int) []zap.Field {
	var errType, errCode string
	if cfg.ErrorClassifier != nil {
		errType, errCode = cfg.ErrorClassifier(err)
	}
	fields := []zap.Field{
		zap.String("error_type", errType),
		zap.String("error_code", errCode),
	}
	if status >= http.StatusInternalServerError {
		fields = append(fields, zap.Error(err))
	}
	if cfg.Debug {
		fields = append(fields, zap.Stack("stack"))
	}
	return fields
}

// Probes log at debug so scrapes do not drown the request log.
func requestLevel(route string, status int) zapcore.Level {
	switch {
	case route == "/health" || route == "/metrics":
		return zapcore.DebugLevel
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
