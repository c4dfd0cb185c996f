package reloader_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/registry"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/assembler"
	"go.trai.ch/kiln/internal/engine/compilation"
	"go.trai.ch/kiln/internal/engine/entry"
	"go.trai.ch/kiln/internal/engine/layers"
	"go.trai.ch/kiln/internal/engine/reloader"
	"go.uber.org/mock/gomock"
)

const source = "/src/App.src"

type harness struct {
	reloader *reloader.Reloader
	cache    *layers.Cache
	registry *registry.Registry
	compiler *mocks.MockCompiler
	resolver *mocks.MockDependencyResolver
	logger   *mocks.MockLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &harness{
		registry: registry.New(),
		compiler: mocks.NewMockCompiler(ctrl),
		resolver: mocks.NewMockDependencyResolver(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
	}
	h.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	tracer := telemetry.NewNoOpTracer()
	h.cache = layers.New(h.registry, tracer, h.logger)
	h.reloader = reloader.New(
		assembler.New(h.resolver),
		compilation.New(h.compiler, h.logger),
		h.cache,
		entry.New(""),
		tracer,
		h.logger,
		reloader.Options{OutputRoot: t.TempDir()},
	)
	return h
}

func returning(v uint64) registry.Table {
	return registry.Table{"run": {
		Signature: domain.EntrySignature,
		Fn: func(context.Context, ...uint64) ([]uint64, error) {
			return []uint64{v}, nil
		},
	}}
}

func units(app, util byte) []domain.CompiledUnit {
	return []domain.CompiledUnit{
		{QualifiedName: "App", Binary: []byte{app}},
		{QualifiedName: "Util", Binary: []byte{util}},
	}
}

// expectCycle scripts one resolver and compiler call.
func (h *harness) expectCycle(searchPath string, out []domain.CompiledUnit) {
	h.resolver.EXPECT().Resolve(gomock.Any(), source).Return(searchPath, nil)
	h.compiler.EXPECT().Compile(gomock.Any(), source, searchPath, gomock.Any()).
		Return(domain.CompileOutput{Units: out}, nil)
}

func TestReload_UtilAppExample(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	h.expectCycle("", units(2, 1))
	first, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)

	h.expectCycle("", units(3, 1))
	second, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)

	chain := h.cache.Chain()
	require.Len(t, chain, 2)
	assert.Same(t, first.Owner.Parent(), second.Owner.Parent(), "Util layer must be reused")
	assert.NotEqual(t, first.Owner.ID(), second.Owner.ID(), "App layer must be rebuilt")
	assert.Equal(t, chain[1].ID(), second.Owner.ID())
	assert.Same(t, second, h.reloader.Current())
}

func TestReload_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	h.expectCycle("", units(2, 1))
	first, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)
	before := h.cache.Chain()

	h.expectCycle("", units(2, 1))
	second, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)
	after := h.cache.Chain()

	require.Len(t, after, len(before))
	for i := range before {
		assert.Same(t, before[i], after[i])
	}
	assert.Same(t, first.Owner, second.Owner)
	assert.Zero(t, h.registry.Released())
}

func TestReload_EntryPlacementStability(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	h.expectCycle("", units(0, 9))
	first, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)
	util := first.Owner.Parent()

	for edit := byte(1); edit <= 5; edit++ {
		h.expectCycle("", units(edit, 9))
		next, err := h.reloader.Reload(t.Context(), source)
		require.NoError(t, err)
		assert.Same(t, util, next.Owner.Parent(), "edit %d", edit)
	}
	assert.Equal(t, 5, h.registry.Released())
}

func TestReload_CompileErrorKeepsPreviousHandle(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(42))

	h.expectCycle("", units(2, 1))
	first, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)
	before := h.cache.Chain()

	h.resolver.EXPECT().Resolve(gomock.Any(), source).Return("", nil)
	h.compiler.EXPECT().Compile(gomock.Any(), source, "", gomock.Any()).Return(domain.CompileOutput{
		Diagnostics: []domain.Diagnostic{
			{Severity: domain.SeverityError, Origin: source, Line: 3, Column: 1, Message: "unexpected token"},
		},
	}, nil)

	second, err := h.reloader.Reload(t.Context(), source)

	assert.Nil(t, second)
	var ce *domain.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "ERROR /src/App.src:3:1: unexpected token")

	assert.Same(t, first, h.reloader.Current())
	status, err := h.reloader.Invoke(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int32(42), status)

	after := h.cache.Chain()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Same(t, before[i], after[i])
	}
	assert.Zero(t, h.cache.Pending())
}

func TestReload_ResolutionError(t *testing.T) {
	h := newHarness(t)
	h.resolver.EXPECT().Resolve(gomock.Any(), source).Return("", errors.New("lockfile missing"))

	_, err := h.reloader.Reload(t.Context(), source)

	require.ErrorIs(t, err, domain.ErrResolutionFailed)
	assert.Contains(t, err.Error(), "lockfile missing")
	assert.Nil(t, h.reloader.Current())
	assert.Zero(t, h.registry.Live())
}

func TestReload_ReloadErrorIsLogged(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	h.expectCycle("", units(2, 1))
	first, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)

	h.registry.Register("App", registry.Table{})
	h.expectCycle("", units(3, 1))
	h.logger.EXPECT().Error(gomock.Any())

	_, err = h.reloader.Reload(t.Context(), source)

	require.ErrorIs(t, err, domain.ErrReloadFailed)
	require.ErrorIs(t, err, domain.ErrEntryFunctionMissing)
	assert.Same(t, first, h.reloader.Current())

	status, err := h.reloader.Invoke(t.Context())
	require.NoError(t, err, "retired layers stay alive until a cycle succeeds")
	assert.Equal(t, int32(1), status)
	assert.Equal(t, 1, h.cache.Pending())
}

func TestReload_DependencyInvalidation(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	var signals []domain.Invalidation
	h.reloader.OnInvalidate(func(inv domain.Invalidation) { signals = append(signals, inv) })

	sep := string(os.PathListSeparator)
	h.expectCycle("/deps/a.wasm"+sep+"/deps/b.wasm", units(2, 1))
	first, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)
	require.NoError(t, h.reloader.CheckGeneration(first.Generation))

	h.expectCycle("/deps/b.wasm"+sep+"/deps/a.wasm", units(2, 1))
	second, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)

	require.Len(t, signals, 1)
	assert.Equal(t, second.Generation, signals[0].Generation)
	assert.NotSame(t, first.Owner.Parent(), second.Owner.Parent())
	require.ErrorIs(t, h.reloader.CheckGeneration(first.Generation), domain.ErrStaleGeneration)
	require.NoError(t, h.reloader.CheckGeneration(second.Generation))

	_, err = first.Invoke(t.Context())
	require.ErrorIs(t, err, domain.ErrContextReleased, "old layers are released after the swap")
}

func TestReload_OutputDirIsRemoved(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	var outDir string
	h.resolver.EXPECT().Resolve(gomock.Any(), source).Return("", nil)
	h.compiler.EXPECT().Compile(gomock.Any(), source, "", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _, dir string) (domain.CompileOutput, error) {
			outDir = dir
			assert.DirExists(t, dir)
			return domain.CompileOutput{Units: units(1, 1)}, nil
		})

	_, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)
	assert.NoDirExists(t, outDir)
}

func TestReload_Concurrent(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))
	h.resolver.EXPECT().Resolve(gomock.Any(), source).Return("", nil).Times(8)
	h.compiler.EXPECT().Compile(gomock.Any(), source, "", gomock.Any()).
		Return(domain.CompileOutput{Units: units(1, 1)}, nil).Times(8)

	var wg sync.WaitGroup
	owners := make([]string, 8)
	for i := range owners {
		wg.Go(func() {
			handle, err := h.reloader.Reload(t.Context(), source)
			if assert.NoError(t, err) {
				owners[i] = handle.Owner.ID()
			}
		})
	}
	wg.Wait()

	for _, id := range owners {
		assert.Equal(t, owners[0], id, "unchanged units reuse every layer")
	}
	assert.Equal(t, 3, h.registry.Live())
}

func TestReload_EditDuringCycleIsCompiled(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	entered := make(chan struct{})
	unblock := make(chan struct{})
	var calls atomic.Int32
	h.resolver.EXPECT().Resolve(gomock.Any(), source).Return("", nil).Times(2)
	h.compiler.EXPECT().Compile(gomock.Any(), source, "", gomock.Any()).
		DoAndReturn(func(context.Context, string, string, string) (domain.CompileOutput, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-unblock
				return domain.CompileOutput{Units: units(2, 1)}, nil
			}
			return domain.CompileOutput{Units: units(3, 1)}, nil
		}).Times(2)

	var first *ports.EntryHandle
	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		first, firstErr = h.reloader.Reload(t.Context(), source)
	}()
	<-entered

	var second *ports.EntryHandle
	var secondErr error
	edited := make(chan struct{})
	go func() {
		defer close(edited)
		second, secondErr = h.reloader.Reload(t.Context(), source)
	}()
	time.Sleep(50 * time.Millisecond)
	close(unblock)
	<-done
	<-edited

	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, int32(2), calls.Load(), "the edit must get its own compile")
	assert.NotEqual(t, first.Owner.ID(), second.Owner.ID())
	assert.Same(t, first.Owner.Parent(), second.Owner.Parent())
	assert.Same(t, second, h.reloader.Current())
}

func TestReload_FailedCycleKeepsGeneration(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	h.expectCycle("/deps/a.wasm", units(2, 1))
	first, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)

	h.registry.Register("App", registry.Table{})
	h.expectCycle("/deps/b.wasm", units(3, 1))
	h.logger.EXPECT().Error(gomock.Any())

	_, err = h.reloader.Reload(t.Context(), source)
	require.ErrorIs(t, err, domain.ErrEntryFunctionMissing)

	current := h.reloader.Current()
	require.Same(t, first, current)
	require.NoError(t, h.reloader.CheckGeneration(current.Generation),
		"the active handle is not stale after a failed rebuild")
	assert.Equal(t, first.Generation, h.reloader.Generation())

	status, err := h.reloader.Invoke(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int32(1), status)
}

func TestInvoke_BeforeFirstCycle(t *testing.T) {
	h := newHarness(t)

	_, err := h.reloader.Invoke(t.Context())

	require.ErrorIs(t, err, domain.ErrNoActiveEntry)
}

func TestClose(t *testing.T) {
	h := newHarness(t)
	h.registry.Register("App", returning(1))

	h.expectCycle("/deps/util.wasm", units(2, 1))
	_, err := h.reloader.Reload(t.Context(), source)
	require.NoError(t, err)

	assert.Equal(t, 3, h.reloader.Close(t.Context()))
	assert.Nil(t, h.reloader.Current())
	assert.Zero(t, h.registry.Live())
}
