package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithHelpers(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, l := WithRequestID(context.Background(), base, "req-1")
	ctx, l = WithCampaign(ctx, l, "dpnk2025")
	ctx, _ = WithUserID(ctx, l, "42")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "dpnk2025", GetCampaign(ctx))
	assert.Equal(t, "42", GetUserID(ctx))

	L(ctx).Info("hello")
	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "dpnk2025", fields["campaign"])
	assert.Equal(t, "42", fields["user_id"])
}

func TestEnrich_AddsTraceAndContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = context.WithValue(ctx, CampaignKey, "dpnk2025")

	Enrich(ctx, zap.New(core)).Info("job done")

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
	assert.Equal(t, "dpnk2025", fields["campaign"])
	assert.Equal(t, traceID.String(), GetTraceID(ctx))
}

func TestEnrich_NoFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	Enrich(context.Background(), zap.New(core)).Info("plain")
	assert.Empty(t, recorded.All()[0].Context)
	assert.Empty(t, GetTraceID(context.Background()))
}
