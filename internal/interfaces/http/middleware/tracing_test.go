package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dpnk/backend/internal/domain/campaign"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracedRouter(t *testing.T, setup gin.HandlerFunc) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	cfg := DefaultTracingConfig()
	cfg.TracerProvider = tp

	r := gin.New()
	r.Use(RequestID())
	r.Use(TracingWithConfig(cfg))
	r.Use(SpanEnricher())
	if setup != nil {
		r.Use(setup)
	}
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/api/v1/trips/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.POST("/api/v1/teams/join", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": "team is full"})
	})
	r.POST("/api/v1/payu/notify", func(c *gin.Context) {
		_ = c.Error(errors.New("gateway unreachable"))
		c.Status(http.StatusBadGateway)
	})
	return r, sr
}

func serverSpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := sr.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracing_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	r.Use(SpanEnricher())
	r.GET("/api/v1/campaign", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaign", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_SpanNamedAfterRoute(t *testing.T) {
	r, sr := tracedRouter(t, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/trips/42", nil))

	span := serverSpan(t, sr)
	assert.Equal(t, "GET /api/v1/trips/:id", span.Name())
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestTracing_SkipsHealth(t *testing.T) {
	r, sr := tracedRouter(t, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Empty(t, sr.Ended())
}

func TestSpanEnricher_Attributes(t *testing.T) {
	camp, err := campaign.NewCampaign("dpnk2026", "Do práce na kole 2026", 2026)
	require.NoError(t, err)

	r, sr := tracedRouter(t, func(c *gin.Context) {
		c.Set(CampaignKey, camp)
		c.Set(JWTUserIDKey, "3f1c7a6e-0b0e-4c3e-9d55-1b0c2f0e9a11")
		c.Next()
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips/42", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set(CampaignHeaderKey, "other-campaign")
	r.ServeHTTP(httptest.NewRecorder(), req)

	span := serverSpan(t, sr)
	requestID, _ := spanAttr(span, "request_id")
	assert.Equal(t, "req-123", requestID)
	slug, _ := spanAttr(span, "campaign")
	assert.Equal(t, "dpnk2026", slug, "resolved campaign wins over the header")
	userID, _ := spanAttr(span, "user_id")
	assert.Equal(t, "3f1c7a6e-0b0e-4c3e-9d55-1b0c2f0e9a11", userID)
}

func TestSpanEnricher_CampaignHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"brno2026", "brno2026"},
		{"Brno 2026", ""},
		{strings.Repeat("a", MaxCampaignSlugLength+1), ""},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r, sr := tracedRouter(t, nil)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/trips/1", nil)
			req.Header.Set(CampaignHeaderKey, tt.header)
			r.ServeHTTP(httptest.NewRecorder(), req)

			got, _ := spanAttr(serverSpan(t, sr), "campaign")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpanEnricher_Refusal(t *testing.T) {
	r, sr := tracedRouter(t, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/teams/join", nil))

	span := serverSpan(t, sr)
	assert.NotEqual(t, codes.Error, span.Status().Code)
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "request refused", span.Events()[0].Name)
}

func TestSpanEnricher_ServerError(t *testing.T) {
	r, sr := tracedRouter(t, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/payu/notify", nil))

	span := serverSpan(t, sr)
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Status().Description, "gateway unreachable")
}

func TestSpanRequestID_Truncated(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Request-ID", strings.Repeat("x", MaxRequestIDLength+20))
	assert.Len(t, spanRequestID(c), MaxRequestIDLength)
}
