package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// shutdownTimeout bounds the final flush of each provider
const shutdownTimeout = 10 * time.Second

// Collector is the OTLP gRPC endpoint traces, metrics and logs are sent to
type Collector struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// String is used in startup logs
func (c Collector) String() string {
	scheme := "grpcs"
	if c.Insecure {
		scheme = "grpc"
	}
	return scheme + "://" + c.Endpoint
}

// flush runs stop with shutdownTimeout and logs a failure under signal
func flush(ctx context.Context, logger *zap.Logger, signal string, stop func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Error("Telemetry flush failed", zap.String("signal", signal), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", signal, err)
	}
	logger.Debug("Telemetry flushed", zap.String("signal", signal))
	return nil
}
