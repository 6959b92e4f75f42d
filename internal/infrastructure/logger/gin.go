package logger

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ginLoggerKey = "logger"

type accessLog struct {
	skip map[string]bool
	slow time.Duration
}

// AccessLogOption configures GinMiddleware
type AccessLogOption func(*accessLog)

// SkipPaths serves the given paths, typically probes, without a log line
// unless they fail
func SkipPaths(paths ...string) AccessLogOption {
	return func(a *accessLog) {
		for _, p := range paths {
			a.skip[p] = true
		}
	}
}

// SlowRequests logs successful requests slower than d at warn level
func SlowRequests(d time.Duration) AccessLogOption {
	return func(a *accessLog) { a.slow = d }
}

// GinMiddleware puts a request scoped logger on the gin and request
// contexts and writes one access log line per request. Fields bound later
// with BindCampaign or BindUser end up on that line.
func GinMiddleware(base *zap.Logger, opts ...AccessLogOption) gin.HandlerFunc {
	cfg := accessLog{skip: make(map[string]bool)}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		ctx, reqLogger := WithRequestID(c.Request.Context(),
			base.With(zap.String("method", c.Request.Method), zap.String("path", path)),
			c.GetString("request_id"))
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		if cfg.skip[path] && status < http.StatusInternalServerError {
			return
		}

		latency := time.Since(start)
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		case cfg.slow > 0 && latency > cfg.slow:
			level = zapcore.WarnLevel
			fields = append(fields, zap.Bool("slow", true))
		}
		withTrace(c.Request.Context(), GetGinLogger(c)).Log(level, "HTTP Request", fields...)
	}
}

// Recovery turns a handler panic into a 500 with the API error envelope and
// logs it with the stack. Broken client connections are handled by gin.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		base.Error("Panic recovered",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("error", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":       "INTERNAL_ERROR",
				"message":    "Internal server error",
				"request_id": c.GetString("request_id"),
			},
		})
	})
}

// BindCampaign adds the campaign slug to the request logger and context.
// The campaign middleware calls it once the campaign is resolved.
func BindCampaign(c *gin.Context, slug string) {
	bind(c, func(ctx context.Context, l *zap.Logger) (context.Context, *zap.Logger) {
		return WithCampaign(ctx, l, slug)
	})
}

// BindUser adds the authenticated user id to the request logger and context
func BindUser(c *gin.Context, userID string) {
	bind(c, func(ctx context.Context, l *zap.Logger) (context.Context, *zap.Logger) {
		return WithUserID(ctx, l, userID)
	})
}

func bind(c *gin.Context, with func(context.Context, *zap.Logger) (context.Context, *zap.Logger)) {
	ctx, l := with(c.Request.Context(), GetGinLogger(c))
	c.Set(ginLoggerKey, l)
	c.Request = c.Request.WithContext(ctx)
}

// GetGinLogger returns the request logger, or a no-op logger outside
// GinMiddleware
func GetGinLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Value(ginLoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
