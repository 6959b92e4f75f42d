package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/dpnk/backend/internal/infrastructure/config"
	"github.com/dpnk/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := telemetry.Setup(ctx, config.TelemetryConfig{
		Enabled:               false,
		MetricsEnabled:        true,
		LogsEnabled:           true,
		CollectorEndpoint:     "localhost:4317",
		SamplingRatio:         1,
		ServiceName:           "dpnk-test",
		MetricsExportInterval: time.Minute,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.Tracer.IsEnabled())
	assert.False(t, p.Meter.IsEnabled())
	assert.False(t, p.Logs.IsEnabled())
	assert.NotNil(t, p.Tracer.Tracer("test"))
	assert.NotNil(t, p.Meter.Meter("test"))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestBridgeLogger_Disabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	bridged := telemetry.BridgeLogger(base, lp, "dpnk-test")
	assert.Same(t, base, bridged)

	bridged.Info("hello")
	assert.Equal(t, 1, logs.Len())
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	core := telemetry.NewZapOTELCore(nil, "dpnk-test", zap.InfoLevel)
	assert.False(t, core.Enabled(zap.ErrorLevel))
}

func TestInstruments_JoinsCreationErrors(t *testing.T) {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	in := telemetry.NewInstruments(mp.Meter("test"))
	assert.NotNil(t, in.Counter("dpnk_ok_total", "fine", "{x}"))
	assert.NoError(t, in.Err())

	in.Counter("1st_invalid", "bad name", "{x}")
	in.Histogram("", "empty name", "s", telemetry.JobDurationBuckets)

	err := in.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instrument 1st_invalid")
}

func TestCollector_String(t *testing.T) {
	assert.Equal(t, "grpc://otel:4317", telemetry.Collector{Endpoint: "otel:4317", Insecure: true}.String())
	assert.Equal(t, "grpcs://otel:4317", telemetry.Collector{Endpoint: "otel:4317"}.String())
}
