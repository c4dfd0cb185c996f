package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/kiln/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Watch reloads source every time files under the project root change and
// invokes the entry after each successful cycle. Failed cycles keep the last
// good entry. It returns when ctx is done.
func (a *App) Watch(ctx context.Context, source string, opts RunOptions) error {
	cfg, src, err := a.prepare(source, opts)
	if err != nil {
		return err
	}

	s, err := a.newSession(cfg)
	if err != nil {
		return err
	}
	defer s.close(context.WithoutCancel(ctx), a.logger)

	s.reloader.OnInvalidate(func(inv domain.Invalidation) {
		a.logger.Warn(fmt.Sprintf("search path changed (%s -> %s), objects from generations before %s are stale",
			inv.Previous, inv.Current, inv.Generation))
	})

	w, err := a.watchers()
	if err != nil {
		return err
	}
	if err := w.Start(ctx, cfg.Root); err != nil {
		_ = w.Stop()
		return zerr.Wrap(err, "failed to start watcher")
	}

	// The first cycle may fail; the next change retries.
	_ = a.cycle(ctx, s.reloader, src)

	trigger := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(cfg.Debounce, func([]string) {
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	g, ctx := errgroup.WithContext(ctx)

	// Event routine
	g.Go(func() error {
		for event := range w.Events() {
			debouncer.Add(event.Path)
		}
		return nil
	})

	// Reload routine
	g.Go(func() error {
		defer func() { _ = w.Stop() }()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-trigger:
				err := a.cycle(ctx, s.reloader, src)
				if err != nil && !errors.Is(err, domain.ErrReloadCycleFailed) {
					return err
				}
			}
		}
	})

	return g.Wait()
}
