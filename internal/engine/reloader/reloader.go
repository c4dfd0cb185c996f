// Package reloader drives reload cycles: assemble the search path, compile,
// group, reconcile the layered cache, resolve the entry and swap the handle.
package reloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/assembler"
	"go.trai.ch/kiln/internal/engine/compilation"
	"go.trai.ch/kiln/internal/engine/entry"
	"go.trai.ch/kiln/internal/engine/grouping"
	"go.trai.ch/kiln/internal/engine/layers"
	"go.trai.ch/zerr"
)

// Options configures a Reloader.
type Options struct {
	// Classpath is the caller-provided search path fragment.
	Classpath string
	// OutputRoot is the directory per-cycle output directories are created in.
	// Empty means os.TempDir.
	OutputRoot string
}

// Reloader is the sole entry point for reload cycles. Cycles are serialized,
// and every Reload call runs its own cycle so edits made while another cycle
// is in flight are always compiled.
type Reloader struct {
	assembler *assembler.Assembler
	compiler  *compilation.Adapter
	cache     *layers.Cache
	entry     *entry.Resolver
	tracer    ports.Tracer
	logger    ports.Logger
	opts      Options

	mu         sync.Mutex
	current    atomic.Pointer[ports.EntryHandle]
	generation atomic.Uint64
	cycles     atomic.Uint64
}

// New creates a Reloader.
func New(
	asm *assembler.Assembler,
	comp *compilation.Adapter,
	cache *layers.Cache,
	resolver *entry.Resolver,
	tracer ports.Tracer,
	logger ports.Logger,
	opts Options,
) *Reloader {
	return &Reloader{
		assembler: asm,
		compiler:  comp,
		cache:     cache,
		entry:     resolver,
		tracer:    tracer,
		logger:    logger,
		opts:      opts,
	}
}

// Reload runs one cycle for sourcePath and returns the new entry handle.
//
// On a *domain.CompileError or *domain.ResolutionError the cache is untouched.
// On a *domain.ReloadError already committed layers stay in place. In both
// cases Current keeps returning the previous handle.
func (r *Reloader) Reload(ctx context.Context, sourcePath string) (*ports.EntryHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycle(ctx, sourcePath)
}

// Current returns the active entry handle, or nil before the first successful cycle.
func (r *Reloader) Current() *ports.EntryHandle {
	return r.current.Load()
}

// Invoke calls the active entry function.
func (r *Reloader) Invoke(ctx context.Context) (int32, error) {
	h := r.current.Load()
	if h == nil {
		return 0, domain.ErrNoActiveEntry
	}
	status, err := h.Invoke(ctx)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(errors.Join(domain.ErrEntryInvocationFailed, err), "invoke entry"),
			"entry", h.Entry+"."+h.Function)
	}
	return status, nil
}

// OnInvalidate registers fn to be called when the dependency layer is rebuilt
// over an existing one. fn runs inside the reload cycle.
func (r *Reloader) OnInvalidate(fn func(domain.Invalidation)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.OnInvalidate(fn)
}

// Generation returns the dependency generation of the active entry handle.
func (r *Reloader) Generation() domain.Generation {
	return domain.Generation(r.generation.Load())
}

// CheckGeneration reports whether an object created under gen still belongs
// to the current dependency generation.
func (r *Reloader) CheckGeneration(gen domain.Generation) error {
	if current := r.Generation(); gen != current {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrStaleGeneration, "generation check"),
			"got", gen.String()), "current", current.String())
	}
	return nil
}

// Close drops the active handle and releases every load context.
func (r *Reloader) Close(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current.Store(nil)
	return r.cache.Close(ctx)
}

func (r *Reloader) cycle(ctx context.Context, sourcePath string) (*ports.EntryHandle, error) {
	n := r.cycles.Add(1)
	ctx, span := r.tracer.Start(ctx, "reload "+filepath.Base(sourcePath))
	defer span.End()
	span.SetAttribute("cycle", n)

	h, res, err := r.run(ctx, sourcePath)
	if err != nil {
		span.RecordError(err)
		var re *domain.ReloadError
		if errors.As(err, &re) {
			r.logger.Error(err)
		}
		return nil, err
	}

	r.current.Store(h)
	r.generation.Store(uint64(h.Generation))
	released := r.cache.ReleaseRetired(ctx)

	span.SetAttribute("reused", res.Reused)
	span.SetAttribute("rebuilt", res.Rebuilt)
	span.SetAttribute("released", released)

	if res.Invalidated {
		r.logger.Info(fmt.Sprintf("dependencies changed, rebuilt every layer under %s", res.Generation))
	}
	r.logger.Info(fmt.Sprintf("reloaded %s: %d reused, %d rebuilt, %d released",
		filepath.Base(sourcePath), res.Reused, res.Rebuilt, released))

	return h, nil
}

func (r *Reloader) run(ctx context.Context, sourcePath string) (*ports.EntryHandle, layers.Result, error) {
	var res layers.Result

	searchPath, fp, err := r.assembler.Assemble(ctx, r.opts.Classpath, sourcePath)
	if err != nil {
		return nil, res, err
	}

	outDir, err := os.MkdirTemp(r.opts.OutputRoot, domain.OutputDirPattern)
	if err != nil {
		return nil, res, &domain.ReloadError{Op: "prepare output", Err: errors.Join(domain.ErrOutputDirCreate, err)}
	}
	defer func() {
		if rmErr := os.RemoveAll(outDir); rmErr != nil {
			r.logger.Warn(fmt.Sprintf("failed to remove %s: %v", outDir, rmErr))
		}
	}()

	units, err := r.compiler.Compile(ctx, sourcePath, searchPath, outDir)
	if err != nil {
		return nil, res, err
	}

	groups := grouping.Group(units)
	chain, res, err := r.cache.Reconcile(ctx, searchPath, fp, groups)
	if err != nil {
		return nil, res, err
	}

	h, err := r.entry.Resolve(units, groups, chain)
	if err != nil {
		return nil, res, err
	}
	return h, res, nil
}
