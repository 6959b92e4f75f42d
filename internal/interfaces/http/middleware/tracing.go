package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxRequestIDLength caps request IDs copied from headers
	MaxRequestIDLength = 128
	// MaxCampaignSlugLength is the longest campaign slug
	MaxCampaignSlugLength = 49
)

var campaignSlugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]+$`)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are not traced
	SkipPaths []string
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

// DefaultTracingConfig returns default tracing configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "dpnk-backend",
		Enabled:     true,
		SkipPaths:   []string{"/health", "/api/v1/health"},
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig starts a server span named after the route pattern,
// e.g. "POST /api/v1/trips". Mount SpanEnricher after it.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	opts := []otelgin.Option{
		otelgin.WithFilter(func(r *http.Request) bool {
			return !skip[r.URL.Path]
		}),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher adds request_id, campaign and user_id to the server span once
// the rest of the chain has resolved them. 4xx answers add a "request
// refused" event; otelgin itself marks 5xx spans as failed.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if requestID := spanRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if slug := spanCampaignSlug(c); slug != "" {
			span.SetAttributes(attribute.String("campaign", slug))
		}
		if userID := c.GetString(JWTUserIDKey); userID != "" {
			span.SetAttributes(attribute.String("user_id", userID))
		}

		if status := c.Writer.Status(); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			span.AddEvent("request refused", trace.WithAttributes(
				attribute.Int("http.status_code", status)))
		}
	}
}

func spanRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader("X-Request-ID")
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

// spanCampaignSlug prefers the resolved campaign. A header slug is used only
// when it is well formed.
func spanCampaignSlug(c *gin.Context) string {
	if camp := GetCampaign(c); camp != nil {
		return camp.Slug
	}
	if slug := c.GetHeader(CampaignHeaderKey); isValidCampaignSlug(slug) {
		return slug
	}
	return ""
}

func isValidCampaignSlug(s string) bool {
	return len(s) <= MaxCampaignSlugLength && campaignSlugRegex.MatchString(s)
}
