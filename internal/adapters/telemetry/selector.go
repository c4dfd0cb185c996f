package telemetry

import (
	"context"

	"go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// InstrumentationName is the OpenTelemetry instrumentation scope of reload spans.
const InstrumentationName = "go.trai.ch/kiln"

// Selector builds the tracer for a configured telemetry backend.
type Selector struct {
	logger ports.Logger
}

// NewSelector creates a Selector whose otel backend reports through logger.
func NewSelector(logger ports.Logger) *Selector {
	return &Selector{logger: logger}
}

// Tracer returns the tracer for backend and a function that flushes and
// shuts it down.
func (s *Selector) Tracer(backend domain.TelemetryBackend) (ports.Tracer, func(context.Context) error, error) {
	switch backend {
	case domain.TelemetryOTel:
		tp := NewProvider(s.logger)
		return NewOTelTracer(InstrumentationName), tp.Shutdown, nil
	case domain.TelemetryProgrock:
		rec := progrock.New()
		return rec, func(context.Context) error { return rec.Close() }, nil
	case domain.TelemetryNone, "":
		return NewNoOpTracer(), func(context.Context) error { return nil }, nil
	default:
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidTelemetryBackend, "select tracer"), "backend", string(backend))
	}
}
