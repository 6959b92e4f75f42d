// Package middleware provides the HTTP middleware of the challenge API.
package middleware

import (
	"strings"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	ServiceName   string
	Enabled       bool
	Logger        *zap.Logger
}

// DefaultHTTPMetricsConfig returns default HTTP metrics configuration
func DefaultHTTPMetricsConfig() HTTPMetricsConfig {
	return HTTPMetricsConfig{
		ServiceName: "dpnk-backend",
		Enabled:     true,
	}
}

// uploadSizeBuckets cover GPX tracks and company import sheets
var uploadSizeBuckets = []float64{1 << 10, 10 << 10, 100 << 10, 500 << 10, 1 << 20, 5 << 20, 10 << 20}

var responseSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 5000000}

type httpMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	uploadSize      metric.Float64Histogram
	responseSize    metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	in := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requestTotal:    in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		requestDuration: in.Histogram("http_server_request_duration_seconds", "HTTP request latency in seconds", "s", telemetry.HTTPDurationBuckets),
		uploadSize:      in.Histogram("http_server_upload_size_bytes", "Size of multipart uploads such as GPX tracks and import sheets", "By", uploadSizeBuckets),
		responseSize:    in.Histogram("http_server_response_size_bytes", "HTTP response body size in bytes", "By", responseSizeBuckets),
		activeRequests:  in.UpDownCounter("http_server_active_requests", "Number of HTTP requests being served", "{request}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics returns a Gin middleware that records request count, latency,
// upload and response sizes and in-flight requests. Requests are labelled by
// route pattern, status class and campaign.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	handler, err := newHTTPMetricsHandler(cfg.MeterProvider.Meter("http.server"))
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}
	return handler
}

// HTTPMetricsWithMeter returns HTTP metrics middleware recording to meter
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	handler, err := newHTTPMetricsHandler(meter)
	if err != nil {
		return passThrough
	}
	return handler
}

func passThrough(c *gin.Context) {
	c.Next()
}

func newHTTPMetricsHandler(meter metric.Meter) (gin.HandlerFunc, error) {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.activeRequests.Add(ctx, 1)

		c.Next()

		m.activeRequests.Add(ctx, -1)

		base := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		}
		counted := append([]attribute.KeyValue{
			telemetry.AttrHTTPStatusClass.String(statusClass(c.Writer.Status())),
		}, base...)
		if camp := GetCampaign(c); camp != nil {
			counted = append(counted, telemetry.AttrCampaign.String(camp.Slug))
		}

		m.requestTotal.Add(ctx, 1, telemetry.With(counted...))
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), telemetry.With(base...))
		if isUpload(c) {
			m.uploadSize.Record(ctx, float64(c.Request.ContentLength), telemetry.With(base...))
		}
		if size := c.Writer.Size(); size > 0 {
			m.responseSize.Record(ctx, float64(size), telemetry.With(base...))
		}
	}, nil
}

// routePattern returns the matched route, e.g. "/api/v1/trips/:id", so raw
// ids never become label values
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func isUpload(c *gin.Context) bool {
	return c.Request.ContentLength > 0 &&
		strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// statusClass groups a status code into 2xx, 3xx, 4xx or 5xx
func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
