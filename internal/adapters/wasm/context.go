package wasm

import (
	"context"
	"errors"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Context is a load context backed by one wazero runtime.
type Context struct {
	factory    *Factory
	id         string
	parent     *Context
	generation domain.Generation
	runtime    wazero.Runtime

	mu        sync.RWMutex
	symbols   map[string]*Symbol
	forwarded map[string]struct{}
	released  bool
}

var _ ports.LoadContext = (*Context)(nil)

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

// Define compiles and instantiates the unit in this context's runtime.
func (c *Context) Define(ctx context.Context, unit domain.CompiledUnit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return zerr.With(zerr.Wrap(domain.ErrContextReleased, "define"), "context", c.id)
	}
	if _, exists := c.symbols[unit.QualifiedName]; exists {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrDuplicateSymbol, "define"), "symbol", unit.QualifiedName), "context", c.id)
	}

	compiled, err := c.runtime.CompileModule(ctx, unit.Binary)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrContextBuildFailed, err), "compile unit"), "unit", unit.QualifiedName)
	}

	if err := c.linkImports(ctx, compiled); err != nil {
		_ = compiled.Close(ctx)
		return zerr.With(err, "unit", unit.QualifiedName)
	}

	mod, err := c.runtime.InstantiateModule(ctx, compiled, c.factory.moduleConfig(unit.QualifiedName))
	if err != nil {
		_ = compiled.Close(ctx)
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrContextBuildFailed, err), "instantiate unit"), "unit", unit.QualifiedName)
	}

	c.symbols[unit.QualifiedName] = &Symbol{name: unit.QualifiedName, owner: c, module: mod}
	return nil
}

// Resolve looks name up locally, then in the parent chain.
func (c *Context) Resolve(name string) (ports.Symbol, error) {
	sym, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

func (c *Context) lookup(name string) (*Symbol, error) {
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

// Release closes the runtime and every module in it. Subsequent calls are no-ops.
func (c *Context) Release(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return nil
	}
	c.released = true
	c.symbols = nil
	if err := c.runtime.Close(ctx); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close runtime"), "context", c.id)
	}
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

// linkImports makes every module the compiled unit imports available in this
// runtime. It must be called with mu held.
func (c *Context) linkImports(ctx context.Context, compiled wazero.CompiledModule) error {
	for _, def := range compiled.ImportedMemories() {
		modName, name, _ := def.Import()
		if !c.hasLocalModule(modName) {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrContextBuildFailed, "memory imports cannot cross load contexts"),
				"module", modName), "memory", name)
		}
	}

	for _, def := range compiled.ImportedFunctions() {
		modName, _, _ := def.Import()
		if c.hasLocalModule(modName) {
			continue
		}
		if c.parent == nil {
			return zerr.With(zerr.Wrap(domain.ErrSymbolNotFound, "link import"), "module", modName)
		}
		target, err := c.parent.lookup(modName)
		if err != nil {
			return zerr.Wrap(err, "link import")
		}
		if err := c.forward(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) hasLocalModule(name string) bool {
	if _, ok := c.forwarded[name]; ok {
		return true
	}
	if name == wasi_snapshot_preview1.ModuleName && c.factory.opts.WASI {
		return true
	}
	_, ok := c.symbols[name]
	return ok
}

// forward instantiates a host module named after target that re-exports every
// function target exports, each calling into target's instance.
func (c *Context) forward(ctx context.Context, target *Symbol) error {
	builder := c.runtime.NewHostModuleBuilder(target.name)
	for name, def := range target.module.ExportedFunctionDefinitions() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(forwarder(target, name, len(def.ParamTypes())), def.ParamTypes(), def.ResultTypes()).
			Export(name)
	}
	if _, err := builder.Instantiate(ctx); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrContextBuildFailed, err), "instantiate forwarder"), "module", target.name)
	}
	c.forwarded[target.name] = struct{}{}
	return nil
}

func forwarder(target *Symbol, function string, params int) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		results, err := target.call(ctx, function, stack[:params]...)
		if err != nil {
			// Panics inside host functions surface as a trap in the caller.
			panic(err)
		}
		copy(stack, results)
	}
}
