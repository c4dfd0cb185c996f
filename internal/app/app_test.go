package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/registry"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// copySource is a compiler command that emits the source file as unit "app".
var copySource = []string{"sh", "-c", `cat "$1" > "$2/app.wasm"`, "kiln", "{source}", "{outdir}"}

type fixture struct {
	ctrl     *gomock.Controller
	root     string
	source   string
	cfg      *domain.Config
	loader   *mocks.MockConfigLoader
	logger   *mocks.MockLogger
	registry *registry.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	root := t.TempDir()
	t.Chdir(root)

	source := filepath.Join(root, "app.src")
	require.NoError(t, os.WriteFile(source, []byte("v1"), 0o600))

	cfg := domain.DefaultConfig(root)
	cfg.Compiler.Command = copySource
	cfg.Telemetry = domain.TelemetryNone
	cfg.Debounce = time.Millisecond

	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:     ctrl,
		root:     root,
		source:   source,
		cfg:      cfg,
		loader:   mocks.NewMockConfigLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		registry: registry.New(),
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.registerRun("run", 42)
	return f
}

func (f *fixture) registerRun(function string, status int32) {
	f.registry.Register("app", registry.Table{
		function: {
			Signature: domain.EntrySignature,
			Fn: func(context.Context, ...uint64) ([]uint64, error) {
				return []uint64{uint64(uint32(status))}, nil
			},
		},
	})
}

func (f *fixture) app(watchers func() (ports.Watcher, error)) *app.App {
	return app.New(f.loader, f.logger, telemetry.NewSelector(f.logger), watchers).
		WithContextFactory(f.registry)
}

func TestApp_Run_InvokesEntry(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)

	out := new(bytes.Buffer)
	err := f.app(nil).WithOutput(out).Run(context.Background(), "app.src", app.RunOptions{})

	require.NoError(t, err)
	assert.Equal(t, "app.run -> 42\n", out.String())
	assert.Equal(t, 0, f.registry.Live(), "every context is released on exit")
}

func TestApp_Run_Overrides(t *testing.T) {
	f := newFixture(t)
	f.registerRun("start", 7)
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)

	out := new(bytes.Buffer)
	err := f.app(nil).WithOutput(out).Run(context.Background(), "app.src", app.RunOptions{
		Entry:     "start",
		Telemetry: "progrock",
	})

	require.NoError(t, err)
	assert.Equal(t, "app.start -> 7\n", out.String())
}

func TestApp_Run_InvalidTelemetryOverride(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)

	err := f.app(nil).Run(context.Background(), "app.src", app.RunOptions{Telemetry: "jaeger"})

	require.ErrorIs(t, err, domain.ErrInvalidTelemetryBackend)
}

func TestApp_Run_NoSource(t *testing.T) {
	f := newFixture(t)

	err := f.app(nil).Run(context.Background(), "", app.RunOptions{})

	require.ErrorIs(t, err, domain.ErrNoSourceSpecified)
}

func TestApp_Run_MissingSource(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)

	err := f.app(nil).Run(context.Background(), "gone.src", app.RunOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "source file not accessible")
}

func TestApp_Run_ConfigLoaderError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(nil, errors.New("config load error"))

	err := f.app(nil).Run(context.Background(), "app.src", app.RunOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestApp_Run_CompileError(t *testing.T) {
	f := newFixture(t)
	f.cfg.Compiler.Command = []string{"sh", "-c", `echo "$1:3:5: error: missing semicolon"; exit 1`, "kiln", "{source}"}
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)
	f.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrCompileFailed)
	})

	out := new(bytes.Buffer)
	err := f.app(nil).WithOutput(out).Run(context.Background(), "app.src", app.RunOptions{})

	require.ErrorIs(t, err, domain.ErrReloadCycleFailed)
	require.ErrorIs(t, err, domain.ErrCompileFailed)
	assert.Empty(t, out.String())
}

func TestApp_Run_ReloadErrorShowsUserMessage(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)
	f.logger.EXPECT().Error(gomock.Any())
	f.logger.EXPECT().Warn("internal reload failure during resolve entry, please report this")

	err := f.app(nil).Run(context.Background(), "app.src", app.RunOptions{Entry: "main"})

	require.ErrorIs(t, err, domain.ErrReloadCycleFailed)
	require.ErrorIs(t, err, domain.ErrEntryFunctionMissing)
}

// lineWriter forwards every write to a channel.
type lineWriter chan string

func (w lineWriter) Write(p []byte) (int, error) {
	w <- string(p)
	return len(p), nil
}

func expectLine(t *testing.T, lines <-chan string, want string) {
	t.Helper()
	select {
	case got := <-lines:
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func TestApp_Watch_ReloadsOnChange(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)
	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	events := make(chan ports.WatchEvent)
	var closeOnce sync.Once
	w := mocks.NewMockWatcher(f.ctrl)
	w.EXPECT().Start(gomock.Any(), f.root).Return(nil)
	w.EXPECT().Events().Return(func(yield func(ports.WatchEvent) bool) {
		for ev := range events {
			if !yield(ev) {
				return
			}
		}
	})
	w.EXPECT().Stop().DoAndReturn(func() error {
		closeOnce.Do(func() { close(events) })
		return nil
	}).MinTimes(1)

	lines := make(lineWriter, 4)
	a := f.app(func() (ports.Watcher, error) { return w, nil }).WithOutput(lines)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, "app.src", app.RunOptions{}) }()

	expectLine(t, lines, "app.run -> 42\n")

	require.NoError(t, os.WriteFile(f.source, []byte("v2"), 0o600))
	f.registerRun("run", 43)
	events <- ports.WatchEvent{Path: f.source, Operation: ports.OpWrite}

	expectLine(t, lines, "app.run -> 43\n")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
	assert.Equal(t, 0, f.registry.Live())
}

func TestApp_Watch_WatcherError(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(".").Return(f.cfg, nil)

	a := f.app(func() (ports.Watcher, error) { return nil, errors.New("inotify exhausted") })
	err := a.Watch(context.Background(), "app.src", app.RunOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "inotify exhausted")
}
