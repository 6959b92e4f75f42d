package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeLayout is used when Config.TimeLayout is empty
const DefaultTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Config describes the process logger
type Config struct {
	Level string // debug, info, warn, error
	// Format is json or console
	Format string
	// Output is stdout, stderr or a file path
	Output     string
	TimeLayout string
	// Sample thins out repeated messages, which keeps a busy results
	// recalculation from flooding the log
	Sample bool
	// Fields are attached to every entry
	Fields map[string]string
}

// New builds the logger. Extra cores, such as the OpenTelemetry bridge,
// receive what the primary core accepts. The returned func flushes the
// logger and closes a file output.
func New(cfg Config, extra ...zapcore.Core) (*zap.Logger, func(), error) {
	sink, closeSink, err := zap.Open(outputPath(cfg.Output))
	if err != nil {
		return nil, nil, err
	}

	level := ParseLevel(cfg.Level)
	var core zapcore.Core = zapcore.NewCore(newEncoder(cfg), sink, level)
	if cfg.Sample {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}
	for _, c := range extra {
		if leveled, err := zapcore.NewIncreaseLevelCore(c, level); err == nil {
			c = leveled
		}
		core = zapcore.NewTee(core, c)
	}

	fields := make([]zap.Field, 0, len(cfg.Fields))
	for k, v := range cfg.Fields {
		fields = append(fields, zap.String(k, v))
	}
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(fields...))
	return log, func() {
		_ = log.Sync()
		closeSink()
	}, nil
}

// ParseLevel reads a level name, defaulting to info
func ParseLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	parsed, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

func outputPath(output string) string {
	switch strings.ToLower(output) {
	case "", "stdout":
		return "stdout"
	case "stderr":
		return "stderr"
	}
	return output
}

func newEncoder(cfg Config) zapcore.Encoder {
	layout := cfg.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if cfg.Format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}
