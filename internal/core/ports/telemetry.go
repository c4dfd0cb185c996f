package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals the family keys of the groups about to be reconciled, in chain order.
	EmitPlan(ctx context.Context, groupKeys []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Cached marks spans whose work was skipped because a reusable result existed.
	Cached bool
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithCached marks the span as a cache hit.
func WithCached() SpanOption {
	return func(c *SpanConfig) {
		c.Cached = true
	}
}
