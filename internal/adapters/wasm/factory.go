// Package wasm provides load contexts backed by wazero runtimes.
//
// Every load context owns one runtime. Units defined in a context are
// instantiated as modules named after their qualified name, so units in the
// same context link to each other directly. Imports naming a module that only
// exists in an ancestor context are satisfied by a forwarding host module that
// calls into the ancestor's instance. Only function imports can be forwarded,
// and pointer arguments do not carry across, since every runtime has its own
// memories.
package wasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options configures the runtimes created by a Factory.
type Options struct {
	// WASI instantiates wasi_snapshot_preview1 in every runtime.
	WASI bool
	// Extension is the file extension of units on the search path.
	Extension string
	// Stdout and Stderr receive guest output when WASI is enabled.
	Stdout io.Writer
	Stderr io.Writer
}

// Factory implements ports.ContextFactory with wazero. Runtimes share one
// compilation cache, so rebuilding a layer from unchanged binaries skips
// native compilation.
type Factory struct {
	opts   Options
	cache  wazero.CompilationCache
	nextID atomic.Uint64
}

var _ ports.ContextFactory = (*Factory)(nil)

// NewFactory creates a Factory.
func NewFactory(opts Options) *Factory {
	if opts.Extension == "" {
		opts.Extension = domain.DefaultUnitExtension
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &Factory{opts: opts, cache: wazero.NewCompilationCache()}
}

// Close releases the shared compilation cache. Contexts must be released first.
func (f *Factory) Close(ctx context.Context) error {
	return f.cache.Close(ctx)
}

// NewDependencyLayer creates a root context and defines every unit found on
// the search path, in search path order. A directory entry contributes every
// unit below it in lexical order. Units are named after their file name
// without extension.
func (f *Factory) NewDependencyLayer(
	ctx context.Context,
	searchPath string,
	gen domain.Generation,
) (ports.LoadContext, error) {
	lc, err := f.newContext(ctx, nil, gen)
	if err != nil {
		return nil, err
	}

	for _, entry := range filepath.SplitList(searchPath) {
		if entry == "" {
			continue
		}
		units, err := f.readEntry(entry)
		if err == nil {
			for _, u := range units {
				if err = lc.Define(ctx, u); err != nil {
					break
				}
			}
		}
		if err != nil {
			_ = lc.Release(ctx)
			return nil, zerr.With(err, "entry", entry)
		}
	}
	return lc, nil
}

// NewAppLayer creates an empty context delegating to parent.
func (f *Factory) NewAppLayer(
	ctx context.Context,
	parent ports.LoadContext,
	gen domain.Generation,
) (ports.LoadContext, error) {
	p, ok := parent.(*Context)
	if !ok || p.factory != f {
		return nil, zerr.With(zerr.Wrap(domain.ErrForeignContext, "new app layer"), "parent", fmt.Sprintf("%T", parent))
	}
	if p.isReleased() {
		return nil, zerr.With(zerr.Wrap(domain.ErrContextReleased, "new app layer"), "parent", p.ID())
	}
	return f.newContext(ctx, p, gen)
}

func (f *Factory) newContext(ctx context.Context, parent *Context, gen domain.Generation) (*Context, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCompilationCache(f.cache).
		WithCloseOnContextDone(true))

	if f.opts.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			_ = rt.Close(ctx)
			return nil, zerr.Wrap(errors.Join(domain.ErrContextBuildFailed, err), "instantiate wasi")
		}
	}

	return &Context{
		factory:    f,
		id:         fmt.Sprintf("wasm-%d", f.nextID.Add(1)),
		parent:     parent,
		generation: gen,
		runtime:    rt,
		symbols:    make(map[string]*Symbol),
		forwarded:  make(map[string]struct{}),
	}, nil
}

func (f *Factory) moduleConfig(name string) wazero.ModuleConfig {
	return wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize").
		WithStdout(f.opts.Stdout).
		WithStderr(f.opts.Stderr)
}

// readEntry loads one search path entry.
func (f *Factory) readEntry(entry string) ([]domain.CompiledUnit, error) {
	info, err := os.Stat(entry)
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrSearchPathEntry, err), "stat search path entry")
	}

	if !info.IsDir() {
		u, err := readUnit(entry, strings.TrimSuffix(filepath.Base(entry), filepath.Ext(entry)))
		if err != nil {
			return nil, err
		}
		return []domain.CompiledUnit{u}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(entry), "**/*"+f.opts.Extension, doublestar.WithFilesOnly())
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrSearchPathEntry, err), "list search path directory")
	}
	slices.Sort(matches)

	units := make([]domain.CompiledUnit, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), f.opts.Extension)
		u, err := readUnit(filepath.Join(entry, filepath.FromSlash(m)), name)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func readUnit(path, name string) (domain.CompiledUnit, error) {
	bin, err := os.ReadFile(path) //nolint:gosec // search path entries are user provided
	if err != nil {
		return domain.CompiledUnit{}, zerr.With(zerr.Wrap(errors.Join(domain.ErrSearchPathEntry, err), "read unit"), "path", path)
	}
	return domain.CompiledUnit{QualifiedName: name, Binary: bin, OriginPath: path}, nil
}
