package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler(t *testing.T) {
	t.Run("disabled profiler is a no-op", func(t *testing.T) {
		p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})

	t.Run("requires a server address", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "dpnk"}, zap.NewNop())
		assert.ErrorContains(t, err, "server address")
	})

	t.Run("requires an application name", func(t *testing.T) {
		_, err := NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
		assert.ErrorContains(t, err, "application name")
	})
}

func TestSanitizeLabels(t *testing.T) {
	long := strings.Repeat("x", maxLabelValueLength+10)

	pairs := sanitizeLabels(map[string]string{
		"job":                "results_flush",
		"campaign":           "dpnk2026",
		"user_attendance_id": "3f1c",
		"empty":              "",
		"route":              long,
	})

	require.Len(t, pairs, 6)
	assert.Equal(t, []string{"campaign", "dpnk2026", "job", "results_flush", "route"}, pairs[:5])
	assert.Len(t, pairs[5], maxLabelValueLength)
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("labels are visible inside fn", func(t *testing.T) {
		var got string
		WithProfilingLabels(context.Background(), map[string]string{"job": "mailing_sync"}, func(ctx context.Context) {
			got, _ = pprof.Label(ctx, "job")
		})
		assert.Equal(t, "mailing_sync", got)
	})

	t.Run("no labels runs fn directly", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), map[string]string{"request_id": "abc"}, func(ctx context.Context) {
			called = true
			_, ok := pprof.Label(ctx, "request_id")
			assert.False(t, ok)
		})
		assert.True(t, called)
	})
}

func TestTracerProvider_SpanProfilesNeedTracing(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), TraceConfig{}, zap.NewNop())
	require.NoError(t, err)

	tp.EnableSpanProfiles()
	assert.False(t, tp.IsSpanProfilesEnabled())
}
