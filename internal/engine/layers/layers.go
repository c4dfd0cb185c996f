// Package layers implements the layered load-context cache.
//
// The cache holds one dependency layer, identified by the fingerprint of the
// search path it was built from, and a chain of app layers, one per load group.
// Layer i delegates to layer i-1, and layer 0 delegates to the dependency layer.
// Reconcile reuses every leading layer whose group is byte-identical to the
// previous cycle and rebuilds from the first divergence onwards.
//
// Contexts displaced by Reconcile are retired, not released. The caller
// releases them with ReleaseRetired once nothing can reach them any more.
package layers

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Chain is an ordered list of app layers. Index i corresponds to load group i.
type Chain []ports.LoadContext

// Result summarizes one Reconcile call.
type Result struct {
	Reused  int
	Rebuilt int
	// Retired counts contexts displaced during the call.
	Retired int
	// Invalidated is set when the dependency layer was rebuilt over an existing one.
	Invalidated bool
	Generation  domain.Generation
}

type layer struct {
	ctx ports.LoadContext
	sig domain.GroupSignature
}

// Cache is the layered load-context cache. It is not safe for concurrent use;
// callers serialize access.
type Cache struct {
	factory ports.ContextFactory
	tracer  ports.Tracer
	logger  ports.Logger

	fingerprint domain.Fingerprint
	deps        ports.LoadContext
	chain       []layer
	retired     []ports.LoadContext
	generation  domain.Generation

	listeners []func(domain.Invalidation)
}

// New creates an empty Cache.
func New(factory ports.ContextFactory, tracer ports.Tracer, logger ports.Logger) *Cache {
	return &Cache{
		factory: factory,
		tracer:  tracer,
		logger:  logger,
	}
}

// OnInvalidate registers fn to be called synchronously every time the
// dependency layer is replaced.
func (c *Cache) OnInvalidate(fn func(domain.Invalidation)) {
	c.listeners = append(c.listeners, fn)
}

// Generation returns the generation of the current dependency layer.
func (c *Cache) Generation() domain.Generation {
	return c.generation
}

// Fingerprint returns the fingerprint of the current dependency layer.
func (c *Cache) Fingerprint() domain.Fingerprint {
	return c.fingerprint
}

// Dependencies returns the current dependency layer, or nil.
func (c *Cache) Dependencies() ports.LoadContext {
	return c.deps
}

// Chain returns a copy of the current app layer chain.
func (c *Cache) Chain() Chain {
	out := make(Chain, len(c.chain))
	for i, l := range c.chain {
		out[i] = l.ctx
	}
	return out
}

// Pending returns the number of retired contexts awaiting release.
func (c *Cache) Pending() int {
	return len(c.retired)
}

// Reconcile brings the cache in line with the given search path and groups.
//
// On error the returned chain is nil. A dependency-layer build failure leaves
// the cache unchanged. A failure building app layer i keeps layers below i and
// retires the rest.
func (c *Cache) Reconcile(
	ctx context.Context,
	searchPath string,
	fp domain.Fingerprint,
	groups []domain.LoadGroup,
) (Chain, Result, error) {
	var res Result

	if c.deps == nil || !c.fingerprint.Equal(fp) {
		retired, err := c.rebuildDependencies(ctx, searchPath, fp)
		if err != nil {
			return nil, res, err
		}
		res.Invalidated = retired > 0
		res.Retired += retired
	}
	res.Generation = c.generation

	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	c.tracer.EmitPlan(ctx, keys)

	for i, g := range groups {
		if i < len(c.chain) && c.chain[i].sig.Matches(g) {
			_, span := c.tracer.Start(ctx, layerSpanName(i, g.Key), ports.WithCached())
			span.SetAttribute("context", c.chain[i].ctx.ID())
			span.End()
			res.Reused++
			continue
		}

		res.Retired += c.retireFrom(i)

		built, err := c.buildLayer(ctx, i, g)
		if err != nil {
			return nil, res, &domain.ReloadError{
				Op: "build layer",
				Err: errors.Join(domain.ErrContextBuildFailed, zerr.With(zerr.With(zerr.Wrap(err, "app layer build failed"),
					"index", i), "group", g.Key)),
			}
		}
		c.chain = append(c.chain, built)
		res.Rebuilt++
	}

	res.Retired += c.retireFrom(len(groups))

	return c.Chain(), res, nil
}

// ReleaseRetired releases every retired context, children before parents.
// Failures are logged and do not stop the remaining releases.
func (c *Cache) ReleaseRetired(ctx context.Context) int {
	released := 0
	for _, lc := range c.retired {
		if err := lc.Release(ctx); err != nil {
			c.logger.Error(zerr.With(zerr.Wrap(err, "failed to release load context"), "context", lc.ID()))
			continue
		}
		released++
	}
	c.retired = nil
	return released
}

// Close retires every live context and releases everything.
func (c *Cache) Close(ctx context.Context) int {
	c.retireFrom(0)
	if c.deps != nil {
		c.retired = append(c.retired, c.deps)
		c.deps = nil
	}
	c.fingerprint = domain.Fingerprint{}
	return c.ReleaseRetired(ctx)
}

func (c *Cache) rebuildDependencies(
	ctx context.Context,
	searchPath string,
	fp domain.Fingerprint,
) (int, error) {
	gen := c.generation.Next()

	ctx, span := c.tracer.Start(ctx, "dependencies")
	defer span.End()
	span.SetAttribute("fingerprint", fp.String())
	span.SetAttribute("generation", gen.String())

	deps, err := c.factory.NewDependencyLayer(ctx, searchPath, gen)
	if err != nil {
		span.RecordError(err)
		return 0, &domain.ReloadError{
			Op: "build dependency layer",
			Err: errors.Join(domain.ErrContextBuildFailed,
				zerr.With(zerr.Wrap(err, "dependency layer build failed"), "fingerprint", fp.String())),
		}
	}

	previous := c.fingerprint
	hadDeps := c.deps != nil

	retired := c.retireFrom(0)
	if hadDeps {
		c.retired = append(c.retired, c.deps)
		retired++
	}
	c.deps = deps
	c.fingerprint = fp
	c.generation = gen

	if hadDeps {
		inv := domain.Invalidation{Previous: previous, Current: fp, Generation: gen}
		for _, fn := range c.listeners {
			fn(inv)
		}
	}
	return retired, nil
}

func (c *Cache) buildLayer(ctx context.Context, i int, g domain.LoadGroup) (layer, error) {
	ctx, span := c.tracer.Start(ctx, layerSpanName(i, g.Key))
	defer span.End()

	parent := c.deps
	if i > 0 {
		parent = c.chain[i-1].ctx
	}

	lc, err := c.factory.NewAppLayer(ctx, parent, c.generation)
	if err != nil {
		span.RecordError(err)
		return layer{}, err
	}
	span.SetAttribute("context", lc.ID())

	for _, u := range g.Units {
		if err := lc.Define(ctx, u); err != nil {
			span.RecordError(err)
			if relErr := lc.Release(ctx); relErr != nil {
				c.logger.Error(zerr.With(zerr.Wrap(relErr, "failed to release partial load context"), "context", lc.ID()))
			}
			return layer{}, zerr.With(err, "unit", u.QualifiedName)
		}
	}

	return layer{ctx: lc, sig: domain.NewGroupSignature(g)}, nil
}

// retireFrom moves chain[i:] to the retired list, deepest first, and truncates.
func (c *Cache) retireFrom(i int) int {
	if i >= len(c.chain) {
		return 0
	}
	n := 0
	for j := len(c.chain) - 1; j >= i; j-- {
		c.retired = append(c.retired, c.chain[j].ctx)
		n++
	}
	c.chain = c.chain[:i]
	return n
}

func layerSpanName(i int, key string) string {
	return fmt.Sprintf("layer[%d] %s", i, key)
}
