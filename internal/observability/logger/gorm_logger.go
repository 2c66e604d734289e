package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

const gormComponent = "record.store.gorm"

type GormLoggerConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	// Record lookups miss routinely (GET of an unknown key).
	IgnoreRecordNotFound bool
}

func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:                gormlogger.Warn,
		SlowThreshold:        200 * time.Millisecond,
		IgnoreRecordNotFound: true,
	}
}

// GormLogger routes GORM output through the request-scoped zap logger.
type GormLogger struct {
	cfg GormLoggerConfig
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	return &GormLogger{cfg: cfg}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cfg := l.cfg
	cfg.Level = level
	return &GormLogger{cfg: cfg}
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) message(ctx context.Context, threshold gormlogger.LogLevel, level zapcore.Level, msg string, data []any) {
	if l.cfg.Level < threshold {
		return
	}
	if ce := FromContext(ctx).Check(level, msg); ce != nil {
		fields := []zap.Field{zap.String("component", gormComponent)}
		if len(data) > 0 {
			fields = append(fields, zap.Any("data", data))
		}
		ce.Write(fields...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	level, ok := l.traceLevel(elapsed, err)
	if !ok {
		return
	}

	ce := FromContext(ctx).Check(level, "gorm.query")
	if ce == nil {
		return
	}
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("component", gormComponent),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.String("operation", operationFromSQL(sql)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

// traceLevel picks the zap level for a finished statement, or false when
// the statement is below the configured GORM level.
func (l *GormLogger) traceLevel(elapsed time.Duration, err error) (zapcore.Level, bool) {
	lvl := l.cfg.Level
	if lvl <= gormlogger.Silent {
		return 0, false
	}
	if err != nil && lvl >= gormlogger.Error {
		if !(l.cfg.IgnoreRecordNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)) {
			return zapcore.ErrorLevel, true
		}
	}
	if l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && lvl >= gormlogger.Warn {
		return zapcore.WarnLevel, true
	}
	if lvl >= gormlogger.Info {
		return zapcore.DebugLevel, true
	}
	return 0, false
}

// ParamsFilter drops bound values; documents carry customer phone numbers
// and addresses.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}

// operationFromSQL returns the leading statement keyword, skipping a CTE.
func operationFromSQL(sql string) string {
	for _, tok := range strings.Fields(sql) {
		tok = strings.ToUpper(strings.Trim(tok, "();"))
		switch tok {
		case "WITH":
			continue
		case "SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER":
			return tok
		}
	}
	return "UNKNOWN"
}

var _ gormlogger.Interface = (*GormLogger)(nil)
