// Package registry provides in-process load contexts backed by dispatch tables
// of Go functions.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Func is the Go implementation of an exported function.
type Func func(ctx context.Context, args ...uint64) ([]uint64, error)

// Export is one entry in a unit's dispatch table.
type Export struct {
	Signature domain.Signature
	Fn        Func
}

// Table maps exported function names to their implementations.
type Table map[string]Export

// Registry stores the dispatch tables units are defined from and creates
// load contexts that serve them.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]Table

	nextID   atomic.Uint64
	live     atomic.Int64
	released atomic.Int64
}

var _ ports.ContextFactory = (*Registry)(nil)

// New creates an empty Registry.
func New() *Registry {
	return &Registry{tables: make(map[string]Table)}
}

// Register installs or replaces the dispatch table for a qualified name.
func (r *Registry) Register(name string, table Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[name] = table
}

// Live returns the number of contexts created and not yet released.
func (r *Registry) Live() int {
	return int(r.live.Load())
}

// Released returns the number of contexts released so far.
func (r *Registry) Released() int {
	return int(r.released.Load())
}

func (r *Registry) table(name string) Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tables[name]
}

// NewDependencyLayer creates a root context with one symbol per search path
// entry, named after the entry's base name without extension.
func (r *Registry) NewDependencyLayer(
	ctx context.Context,
	searchPath string,
	gen domain.Generation,
) (ports.LoadContext, error) {
	lc := r.newContext(nil, gen)
	for _, entry := range filepath.SplitList(searchPath) {
		if entry == "" {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(entry), filepath.Ext(entry))
		if err := lc.Define(ctx, domain.CompiledUnit{QualifiedName: name, OriginPath: entry}); err != nil {
			_ = lc.Release(ctx)
			return nil, zerr.With(err, "entry", entry)
		}
	}
	return lc, nil
}

// NewAppLayer creates an empty context delegating to parent.
func (r *Registry) NewAppLayer(
	_ context.Context,
	parent ports.LoadContext,
	gen domain.Generation,
) (ports.LoadContext, error) {
	p, ok := parent.(*Context)
	if !ok || p.registry != r {
		return nil, zerr.With(zerr.Wrap(domain.ErrForeignContext, "new app layer"), "parent", fmt.Sprintf("%T", parent))
	}
	if p.isReleased() {
		return nil, zerr.With(zerr.Wrap(domain.ErrContextReleased, "new app layer"), "parent", p.ID())
	}
	return r.newContext(p, gen), nil
}

func (r *Registry) newContext(parent *Context, gen domain.Generation) *Context {
	r.live.Add(1)
	return &Context{
		registry:   r,
		id:         fmt.Sprintf("reg-%d", r.nextID.Add(1)),
		parent:     parent,
		generation: gen,
		symbols:    make(map[string]*Symbol),
	}
}

// Context is a registry-backed load context.
type Context struct {
	registry   *Registry
	id         string
	parent     *Context
	generation domain.Generation

	mu       sync.RWMutex
	symbols  map[string]*Symbol
	released bool
}

// ID returns the context identifier.
func (c *Context) ID() string {
	return c.id
}

// Parent returns the delegation parent.
func (c *Context) Parent() ports.LoadContext {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

// Generation returns the generation the context was built under.
func (c *Context) Generation() domain.Generation {
	return c.generation
}

// Define binds the unit's qualified name to its registered dispatch table.
// Units without a registered table define a symbol with no exports.
func (c *Context) Define(_ context.Context, unit domain.CompiledUnit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return zerr.With(zerr.Wrap(domain.ErrContextReleased, "define"), "context", c.id)
	}
	if _, exists := c.symbols[unit.QualifiedName]; exists {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrDuplicateSymbol, "define"), "symbol", unit.QualifiedName), "context", c.id)
	}

	c.symbols[unit.QualifiedName] = &Symbol{
		name:  unit.QualifiedName,
		owner: c,
		table: c.registry.table(unit.QualifiedName),
	}
	return nil
}

// Resolve looks name up locally, then in the parent chain.
func (c *Context) Resolve(name string) (ports.Symbol, error) {
	for cur := c; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		released := cur.released
		sym, ok := cur.symbols[name]
		cur.mu.RUnlock()

		if released {
			return nil, zerr.With(zerr.Wrap(domain.ErrContextReleased, "resolve"), "context", cur.id)
		}
		if ok {
			return sym, nil
		}
	}
	return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrSymbolNotFound, "resolve"), "symbol", name), "context", c.id)
}

// Release drops every symbol. Subsequent calls are no-ops.
func (c *Context) Release(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil
	}
	c.released = true
	c.symbols = nil
	c.registry.live.Add(-1)
	c.registry.released.Add(1)
	return nil
}

// Released reports whether Release has been called.
func (c *Context) Released() bool {
	return c.isReleased()
}

func (c *Context) isReleased() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.released
}

// Symbol is a unit defined in a registry context.
type Symbol struct {
	name  string
	owner *Context
	table Table
}

// Name returns the qualified name.
func (s *Symbol) Name() string {
	return s.name
}

// Generation returns the generation of the owning context.
func (s *Symbol) Generation() domain.Generation {
	return s.owner.generation
}

// Lookup returns the named export.
func (s *Symbol) Lookup(function string) (ports.Function, bool) {
	exp, ok := s.table[function]
	if !ok || exp.Fn == nil {
		return nil, false
	}
	return &boundFunc{owner: s.owner, name: s.name + "." + function, export: exp}, true
}

type boundFunc struct {
	owner  *Context
	name   string
	export Export
}

func (f *boundFunc) Signature() domain.Signature {
	return f.export.Signature
}

func (f *boundFunc) Invoke(ctx context.Context, args ...uint64) ([]uint64, error) {
	if f.owner.isReleased() {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrContextReleased, "invoke"), "function", f.name), "context", f.owner.id)
	}
	return f.export.Fn(ctx, args...)
}
