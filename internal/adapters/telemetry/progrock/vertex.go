package progrock

import (
	"fmt"
	"sync"

	"github.com/vito/progrock"
)

// Vertex implements ports.Span wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex *progrock.VertexRecorder

	mu   sync.Mutex
	err  error
	done bool
}

// Write captures span output on the vertex's stdout stream.
func (v *Vertex) Write(p []byte) (int, error) {
	return v.vertex.Stdout().Write(p)
}

// SetAttribute writes the attribute as a "key=value" line.
func (v *Vertex) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(v.vertex.Stdout(), "%s=%v\n", key, value)
}

// RecordError stores err and writes it to the vertex's stderr stream.
// The vertex completes with the last recorded error.
func (v *Vertex) RecordError(err error) {
	v.mu.Lock()
	v.err = err
	v.mu.Unlock()
	_, _ = fmt.Fprintln(v.vertex.Stderr(), err.Error())
}

// End marks the vertex as finished. Subsequent calls are ignored.
func (v *Vertex) End() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done {
		return
	}
	v.done = true
	v.vertex.Done(v.err)
}
