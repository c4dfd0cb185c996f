package wasm_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/registry"
	"go.trai.ch/kiln/internal/adapters/wasm"
	"go.trai.ch/kiln/internal/adapters/wasm/wasmtest"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

func writeUnit(t *testing.T, dir, name string, bin []byte) string {
	t.Helper()
	path := filepath.Join(dir, name+".wasm")
	require.NoError(t, os.WriteFile(path, bin, 0o600))
	return path
}

func newFactory(t *testing.T) *wasm.Factory {
	t.Helper()
	f := wasm.NewFactory(wasm.Options{})
	t.Cleanup(func() { _ = f.Close(context.Background()) })
	return f
}

func invoke(t *testing.T, lc ports.LoadContext, unit, function string) int32 {
	t.Helper()
	sym, err := lc.Resolve(unit)
	require.NoError(t, err)
	fn, ok := sym.Lookup(function)
	require.True(t, ok)
	h := &ports.EntryHandle{Invocable: fn}
	status, err := h.Invoke(context.Background())
	require.NoError(t, err)
	return status
}

func TestFactory_AppLayerCallsDependency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(t)
	path := writeUnit(t, t.TempDir(), "util", wasmtest.Constant("answer", 41))

	deps, err := f.NewDependencyLayer(ctx, path, 1)
	require.NoError(t, err)
	defer func() { _ = deps.Release(ctx) }()

	app, err := f.NewAppLayer(ctx, deps, 1)
	require.NoError(t, err)
	defer func() { _ = app.Release(ctx) }()

	require.NoError(t, app.Define(ctx, domain.CompiledUnit{
		QualifiedName: "app",
		Binary:        wasmtest.Increment("run", "util", "answer"),
	}))

	assert.Equal(t, int32(42), invoke(t, app, "app", "run"))
	assert.Equal(t, int32(41), invoke(t, app, "util", "answer"))

	sym, err := app.Resolve("app")
	require.NoError(t, err)
	assert.Equal(t, domain.Generation(1), sym.Generation())
	fn, ok := sym.Lookup("run")
	require.True(t, ok)
	assert.True(t, fn.Signature().Equal(domain.EntrySignature))

	_, ok = sym.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, deps, app.Parent())
	assert.Nil(t, deps.Parent())
}

func TestFactory_DirectoryEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o750))
	writeUnit(t, dir, "util", wasmtest.Constant("answer", 41))
	writeUnit(t, filepath.Join(dir, "nested"), "extra", wasmtest.Constant("seven", 7))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("ignored"), 0o600))

	deps, err := f.NewDependencyLayer(ctx, dir, 1)
	require.NoError(t, err)
	defer func() { _ = deps.Release(ctx) }()

	assert.Equal(t, int32(41), invoke(t, deps, "util", "answer"))
	assert.Equal(t, int32(7), invoke(t, deps, "extra", "seven"))
}

func TestFactory_NestedChain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(t)
	path := writeUnit(t, t.TempDir(), "util", wasmtest.Constant("answer", 41))

	deps, err := f.NewDependencyLayer(ctx, path, 1)
	require.NoError(t, err)
	mid, err := f.NewAppLayer(ctx, deps, 1)
	require.NoError(t, err)
	require.NoError(t, mid.Define(ctx, domain.CompiledUnit{
		QualifiedName: "mid",
		Binary:        wasmtest.Increment("mid", "util", "answer"),
	}))
	leaf, err := f.NewAppLayer(ctx, mid, 1)
	require.NoError(t, err)
	require.NoError(t, leaf.Define(ctx, domain.CompiledUnit{
		QualifiedName: "app",
		Binary:        wasmtest.Increment("run", "mid", "mid"),
	}))

	assert.Equal(t, int32(43), invoke(t, leaf, "app", "run"))

	for _, lc := range []ports.LoadContext{leaf, mid, deps} {
		require.NoError(t, lc.Release(ctx))
	}
}

func TestContext_Release(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(t)

	deps, err := f.NewDependencyLayer(ctx, "", 1)
	require.NoError(t, err)
	require.NoError(t, deps.Define(ctx, domain.CompiledUnit{QualifiedName: "util", Binary: wasmtest.Constant("answer", 41)}))

	sym, err := deps.Resolve("util")
	require.NoError(t, err)
	fn, ok := sym.Lookup("answer")
	require.True(t, ok)

	require.NoError(t, deps.Release(ctx))
	require.NoError(t, deps.Release(ctx))
	assert.True(t, deps.(*wasm.Context).Released())

	_, err = fn.Invoke(ctx)
	require.ErrorIs(t, err, domain.ErrContextReleased)

	_, err = deps.Resolve("util")
	require.ErrorIs(t, err, domain.ErrContextReleased)

	err = deps.Define(ctx, domain.CompiledUnit{QualifiedName: "other", Binary: wasmtest.Constant("x", 1)})
	require.ErrorIs(t, err, domain.ErrContextReleased)

	_, err = f.NewAppLayer(ctx, deps, 1)
	require.ErrorIs(t, err, domain.ErrContextReleased)
}

func TestFactory_ForeignParent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(t)

	foreign, err := registry.New().NewDependencyLayer(ctx, "", 1)
	require.NoError(t, err)

	_, err = f.NewAppLayer(ctx, foreign, 1)
	require.ErrorIs(t, err, domain.ErrForeignContext)

	other := newFactory(t)
	deps, err := other.NewDependencyLayer(ctx, "", 1)
	require.NoError(t, err)
	defer func() { _ = deps.Release(ctx) }()

	_, err = f.NewAppLayer(ctx, deps, 1)
	require.ErrorIs(t, err, domain.ErrForeignContext)
}

func TestContext_DefineErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFactory(t)

	deps, err := f.NewDependencyLayer(ctx, "", 1)
	require.NoError(t, err)
	defer func() { _ = deps.Release(ctx) }()

	t.Run("missing import", func(t *testing.T) {
		err := deps.Define(ctx, domain.CompiledUnit{
			QualifiedName: "app",
			Binary:        wasmtest.Increment("run", "util", "answer"),
		})
		require.ErrorIs(t, err, domain.ErrSymbolNotFound)
	})

	t.Run("missing import in parent chain", func(t *testing.T) {
		app, err := f.NewAppLayer(ctx, deps, 1)
		require.NoError(t, err)
		defer func() { _ = app.Release(ctx) }()

		err = app.Define(ctx, domain.CompiledUnit{
			QualifiedName: "app",
			Binary:        wasmtest.Increment("run", "nowhere", "answer"),
		})
		require.ErrorIs(t, err, domain.ErrSymbolNotFound)
	})

	t.Run("invalid binary", func(t *testing.T) {
		err := deps.Define(ctx, domain.CompiledUnit{QualifiedName: "junk", Binary: []byte("not wasm")})
		require.ErrorIs(t, err, domain.ErrContextBuildFailed)
	})

	t.Run("duplicate", func(t *testing.T) {
		unit := domain.CompiledUnit{QualifiedName: "dup", Binary: wasmtest.Constant("x", 1)}
		require.NoError(t, deps.Define(ctx, unit))
		err := deps.Define(ctx, unit)
		require.ErrorIs(t, err, domain.ErrDuplicateSymbol)
	})

	t.Run("resolve miss", func(t *testing.T) {
		_, err := deps.Resolve("absent")
		require.ErrorIs(t, err, domain.ErrSymbolNotFound)
	})
}

func TestFactory_MissingSearchPathEntry(t *testing.T) {
	t.Parallel()
	f := newFactory(t)

	_, err := f.NewDependencyLayer(context.Background(), filepath.Join(t.TempDir(), "gone.wasm"), 1)
	require.ErrorIs(t, err, domain.ErrSearchPathEntry)
}

func TestFactory_WASI(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := wasm.NewFactory(wasm.Options{WASI: true})
	defer func() { _ = f.Close(ctx) }()

	deps, err := f.NewDependencyLayer(ctx, "", 1)
	require.NoError(t, err)
	defer func() { _ = deps.Release(ctx) }()

	require.NoError(t, deps.Define(ctx, domain.CompiledUnit{QualifiedName: "util", Binary: wasmtest.Constant("answer", -3)}))
	assert.Equal(t, int32(-3), invoke(t, deps, "util", "answer"))
}
