// Package progrock provides the Progrock implementation of the telemetry adapter.
package progrock

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/kiln/internal/core/ports"
)

// Recorder implements ports.Tracer by recording every span as a progrock vertex.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
	seq atomic.Uint64
}

// New creates a new Recorder with a default tape.
func New() *Recorder {
	tape := progrock.NewTape()
	return NewRecorder(tape)
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	rec := progrock.NewRecorder(w)
	return &Recorder{
		w:   w,
		rec: rec,
	}
}

// Start records a new vertex. Span names repeat across reload cycles, so each
// vertex digest carries a sequence number.
func (r *Recorder) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	v := r.rec.Vertex(r.digest(name), name)
	if cfg.Cached {
		v.Cached()
	}
	return ctx, &Vertex{vertex: v}
}

// EmitPlan records the planned group keys as a completed vertex.
func (r *Recorder) EmitPlan(_ context.Context, groupKeys []string) {
	v := r.rec.Vertex(r.digest("plan"), "plan")
	_, _ = fmt.Fprintln(v.Stdout(), strings.Join(groupKeys, " -> "))
	v.Done(nil)
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (r *Recorder) digest(name string) digest.Digest {
	return digest.FromString(fmt.Sprintf("%s#%d", name, r.seq.Add(1)))
}
