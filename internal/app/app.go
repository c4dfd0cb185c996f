// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/adapters/compiler"  //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/deps"      //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/wasm"      //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/assembler"
	"go.trai.ch/kiln/internal/engine/compilation"
	"go.trai.ch/kiln/internal/engine/entry"
	"go.trai.ch/kiln/internal/engine/layers"
	"go.trai.ch/kiln/internal/engine/reloader"
	"go.trai.ch/zerr"
)

// ContextProvider creates the context factory for a loaded configuration and
// a function that frees it once every context is released.
type ContextProvider func(cfg *domain.Config) (ports.ContextFactory, func(context.Context) error)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	selector     *telemetry.Selector
	watchers     watcher.Factory
	contexts     ContextProvider
	out          io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	selector *telemetry.Selector,
	watchers watcher.Factory,
) *App {
	a := &App{
		configLoader: loader,
		logger:       log,
		selector:     selector,
		watchers:     watchers,
		out:          os.Stdout,
	}
	a.contexts = a.wasmContexts
	return a
}

// WithContextFactory replaces the wasm runtime with the given factory.
// This is primarily used for testing with in-process load contexts.
func (a *App) WithContextFactory(f ports.ContextFactory) *App {
	a.contexts = func(*domain.Config) (ports.ContextFactory, func(context.Context) error) {
		return f, func(context.Context) error { return nil }
	}
	return a
}

// WithOutput sets the writer entry results are printed to.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// RunOptions holds command line overrides for the loaded configuration.
type RunOptions struct {
	Classpath string
	Entry     string
	Telemetry string
	JSON      bool
}

// Run performs one reload cycle for source and invokes the entry function.
func (a *App) Run(ctx context.Context, source string, opts RunOptions) error {
	cfg, src, err := a.prepare(source, opts)
	if err != nil {
		return err
	}

	s, err := a.newSession(cfg)
	if err != nil {
		return err
	}
	defer s.close(context.WithoutCancel(ctx), a.logger)

	return a.cycle(ctx, s.reloader, src)
}

// prepare loads the configuration, applies the overrides and returns the
// absolute source path.
func (a *App) prepare(source string, opts RunOptions) (*domain.Config, string, error) {
	if source == "" {
		return nil, "", domain.ErrNoSourceSpecified
	}

	if opts.JSON {
		if j, ok := a.logger.(interface{ SetJSON(bool) }); ok {
			j.SetJSON(true)
		}
	}

	cfg, err := a.configLoader.Load(".")
	if err != nil {
		return nil, "", zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Classpath != "" {
		cfg.Dependencies.Classpath = opts.Classpath
	}
	if opts.Entry != "" {
		cfg.EntryFunction = opts.Entry
	}
	if opts.Telemetry != "" {
		backend, err := config.ParseTelemetryBackend(opts.Telemetry)
		if err != nil {
			return nil, "", err
		}
		cfg.Telemetry = backend
	}

	src, err := filepath.Abs(source)
	if err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "failed to resolve source path"), "source", source)
	}
	if _, err := os.Stat(src); err != nil {
		return nil, "", zerr.With(zerr.Wrap(err, "source file not accessible"), "source", source)
	}
	return cfg, src, nil
}

// cycle reloads source and invokes the new entry. Failures are reported here
// and come back joined with domain.ErrReloadCycleFailed.
func (a *App) cycle(ctx context.Context, r *reloader.Reloader, source string) error {
	h, err := r.Reload(ctx, source)
	if err != nil {
		a.report(err)
		return errors.Join(domain.ErrReloadCycleFailed, err)
	}

	status, err := r.Invoke(ctx)
	if err != nil {
		a.logger.Error(err)
		return errors.Join(domain.ErrReloadCycleFailed, err)
	}

	_, _ = fmt.Fprintf(a.out, "%s.%s -> %d\n", h.Entry, h.Function, status)
	return nil
}

// report logs a failed cycle. Internal failures were already logged in full by
// the reloader, users get the short message.
func (a *App) report(err error) {
	var re *domain.ReloadError
	if errors.As(err, &re) {
		a.logger.Warn(re.UserMessage())
		return
	}
	a.logger.Error(err)
}

func (a *App) wasmContexts(cfg *domain.Config) (ports.ContextFactory, func(context.Context) error) {
	f := wasm.NewFactory(wasm.Options{
		WASI:      cfg.WASI,
		Extension: cfg.Compiler.Extension,
		Stdout:    a.out,
		Stderr:    os.Stderr,
	})
	return f, f.Close
}

// session holds the components built from one loaded configuration.
type session struct {
	reloader      *reloader.Reloader
	closeContexts func(context.Context) error
	closeTracer   func(context.Context) error
}

func (a *App) newSession(cfg *domain.Config) (*session, error) {
	tracer, closeTracer, err := a.selector.Tracer(cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	factory, closeContexts := a.contexts(cfg)

	r := reloader.New(
		assembler.New(deps.NewGlobResolver(cfg.Root, cfg.Dependencies.Search)),
		compilation.New(compiler.New(cfg.Compiler, a.logger), a.logger),
		layers.New(factory, tracer, a.logger),
		entry.New(cfg.EntryFunction),
		tracer,
		a.logger,
		reloader.Options{Classpath: cfg.Dependencies.Classpath},
	)

	return &session{reloader: r, closeContexts: closeContexts, closeTracer: closeTracer}, nil
}

func (s *session) close(ctx context.Context, log ports.Logger) {
	s.reloader.Close(ctx)
	if err := s.closeContexts(ctx); err != nil {
		log.Error(zerr.Wrap(err, "failed to close runtime"))
	}
	if err := s.closeTracer(ctx); err != nil {
		log.Error(zerr.Wrap(err, "failed to flush telemetry"))
	}
}
