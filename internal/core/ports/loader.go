package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=loader.go -destination=mocks/mock_loader.go -package=mocks

// LoadContext is an isolated runtime namespace with single-parent delegation.
// Load contexts are owned by the layered cache and released exactly once.
type LoadContext interface {
	// ID returns a process-unique identifier, used in logs and instance names.
	ID() string
	// Parent returns the delegation parent, or nil for a dependency layer.
	Parent() LoadContext
	// Generation returns the dependency generation the context was built under.
	Generation() domain.Generation
	// Define loads a compiled unit into this context.
	Define(ctx context.Context, unit domain.CompiledUnit) error
	// Resolve looks a qualified name up locally, then in the parent chain.
	// It returns an error wrapping domain.ErrSymbolNotFound on a miss.
	Resolve(name string) (Symbol, error)
	// Release frees the context's resources. It is idempotent.
	Release(ctx context.Context) error
}

// ContextFactory creates load contexts for one runtime.
type ContextFactory interface {
	// NewDependencyLayer builds a root context from every unit reachable on the search path.
	NewDependencyLayer(ctx context.Context, searchPath string, gen domain.Generation) (LoadContext, error)
	// NewAppLayer builds an empty context delegating to parent.
	NewAppLayer(ctx context.Context, parent LoadContext, gen domain.Generation) (LoadContext, error)
}

// Symbol is a resolved runtime unit.
type Symbol interface {
	Name() string
	Generation() domain.Generation
	// Lookup returns the named function, if the unit exports one.
	Lookup(function string) (Function, bool)
}

// Function is a typed callable obtained from a Symbol.
type Function interface {
	Signature() domain.Signature
	// Invoke calls the function. Arguments and results use the raw 64-bit
	// encoding of their declared value types.
	Invoke(ctx context.Context, args ...uint64) ([]uint64, error)
}

// EntryHandle is the invocable produced by a successful reload cycle, bound
// to the load context that defines it.
type EntryHandle struct {
	// Entry is the qualified name of the entry unit.
	Entry string
	// Function is the name of the entry function.
	Function   string
	Invocable  Function
	Owner      LoadContext
	Generation domain.Generation
}

// Invoke calls the entry function and returns its i32 status.
func (h *EntryHandle) Invoke(ctx context.Context) (int32, error) {
	res, err := h.Invocable.Invoke(ctx)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return int32(uint32(res[0])), nil //nolint:gosec // i32 results are carried in the low 32 bits
}
