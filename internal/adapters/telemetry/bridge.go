package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// LogBridge implements sdktrace.SpanProcessor to report finished spans through a ports.Logger.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{
		logger: logger,
	}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration and whether it was served from cache.
// Failed spans are skipped; their errors are reported by the caller.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if !s.SpanContext().IsValid() || s.Status().Code == codes.Error {
		return
	}

	cached := false
	for _, kv := range s.Attributes() {
		if string(kv.Key) == CachedAttribute {
			cached = kv.Value.AsBool()
		}
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Round(time.Microsecond)
	if cached {
		b.logger.Info(fmt.Sprintf("%s (cached)", s.Name()))
		return
	}
	b.logger.Info(fmt.Sprintf("%s (%s)", s.Name(), elapsed))
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(_ context.Context) error {
	return nil
}

// NewProvider creates an SDK tracer provider that reports spans through the
// logger and installs it as the global provider.
func NewProvider(logger ports.Logger) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewLogBridge(logger)))
	otel.SetTracerProvider(tp)
	return tp
}
