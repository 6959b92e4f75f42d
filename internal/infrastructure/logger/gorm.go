package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQuery is the threshold above which statements are warned about
const DefaultSlowQuery = 200 * time.Millisecond

// maxStatementLength bounds logged SQL unless full statements are enabled
const maxStatementLength = 512

// SQLLogger routes GORM output through zap. Statements are logged with the
// request scoped logger found in the context, so request and campaign
// fields follow the query.
type SQLLogger struct {
	base     *zap.Logger
	level    gormlogger.LogLevel
	slow     time.Duration
	fullSQL  bool
	notFound bool
}

// SQLLoggerOption configures an SQLLogger
type SQLLoggerOption func(*SQLLogger)

// WithSlowThreshold sets the slow statement threshold; zero disables it
func WithSlowThreshold(d time.Duration) SQLLoggerOption {
	return func(l *SQLLogger) { l.slow = d }
}

// WithFullSQL logs statements without truncation
func WithFullSQL(enabled bool) SQLLoggerOption {
	return func(l *SQLLogger) { l.fullSQL = enabled }
}

// WithNotFoundErrors logs gorm.ErrRecordNotFound as an error. Lookups that
// miss are expected in most repositories, so they are skipped by default.
func WithNotFoundErrors() SQLLoggerOption {
	return func(l *SQLLogger) { l.notFound = true }
}

// NewSQLLogger creates a GORM logger writing to base
func NewSQLLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...SQLLoggerOption) *SQLLogger {
	l := &SQLLogger{
		base:  base.Named("sql"),
		level: level,
		slow:  DefaultSlowQuery,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode returns a copy logging at level
func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.from(ctx).Sugar().Infof(msg, data...)
	}
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.from(ctx).Sugar().Warnf(msg, data...)
	}
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.from(ctx).Sugar().Errorf(msg, data...)
	}
}

// Trace logs one executed statement
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.notFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.from(ctx).Error("Statement failed", append(l.statement(elapsed, fc), zap.Error(err))...)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		l.from(ctx).Warn("Slow statement", append(l.statement(elapsed, fc), zap.Duration("threshold", l.slow))...)
	case l.level >= gormlogger.Info:
		l.from(ctx).Debug("Statement", l.statement(elapsed, fc)...)
	}
}

func (l *SQLLogger) statement(elapsed time.Duration, fc func() (string, int64)) []zap.Field {
	sql, rows := fc()
	if !l.fullSQL && len(sql) > maxStatementLength {
		sql = sql[:maxStatementLength] + "..."
	}
	return []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
}

// from prefers the request logger; background jobs fall back to base with
// whatever identifiers the context carries.
func (l *SQLLogger) from(ctx context.Context) *zap.Logger {
	if reqLogger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return reqLogger.Named("sql")
	}
	log := l.base
	if slug := GetCampaign(ctx); slug != "" {
		log = log.With(zap.String("campaign", slug))
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		log = log.With(zap.String("trace_id", traceID))
	}
	return log
}

// ParseSQLLevel maps the application log level onto GORM's levels. Debug
// enables statement logging; anything unknown keeps warnings.
func ParseSQLLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return gormlogger.Info
	case "info", "warn", "warning":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	case "silent", "off":
		return gormlogger.Silent
	default:
		return gormlogger.Warn
	}
}
