// Package entry locates the entry function of a freshly reconciled chain.
package entry

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver binds the entry unit's entry function to the load context that
// defines it.
type Resolver struct {
	function string
}

// New creates a Resolver for the named entry function. An empty name selects
// domain.DefaultEntryFunction.
func New(function string) *Resolver {
	if function == "" {
		function = domain.DefaultEntryFunction
	}
	return &Resolver{function: function}
}

// Function returns the name of the entry function.
func (r *Resolver) Function() string {
	return r.function
}

// Resolve picks the first non-nested unit in emission order, resolves it in the
// chain layer that holds its group and looks up the entry function.
func (r *Resolver) Resolve(
	units []domain.CompiledUnit,
	groups []domain.LoadGroup,
	chain []ports.LoadContext,
) (*ports.EntryHandle, error) {
	name, ok := entryName(units)
	if !ok {
		return nil, fail(zerr.With(zerr.Wrap(domain.ErrEntryNotFound, "no top-level unit emitted"), "units", len(units)))
	}

	idx := groupIndex(groups, name)
	if idx < 0 || idx >= len(chain) {
		return nil, fail(zerr.With(zerr.With(zerr.Wrap(domain.ErrEntryNotFound, "entry unit has no load context"),
			"unit", name), "layers", len(chain)))
	}
	owner := chain[idx]

	sym, err := owner.Resolve(name)
	if err != nil {
		return nil, fail(zerr.With(zerr.Wrap(err, "entry unit not resolvable"), "layer", idx))
	}

	fn, ok := sym.Lookup(r.function)
	if !ok {
		return nil, fail(zerr.With(zerr.With(zerr.Wrap(domain.ErrEntryFunctionMissing, "entry function not exported"),
			"unit", name), "function", r.function))
	}
	if sig := fn.Signature(); !sig.Equal(domain.EntrySignature) {
		err := zerr.Wrap(domain.ErrEntryFunctionMissing, "entry function has the wrong signature")
		err = zerr.With(err, "function", r.function)
		err = zerr.With(err, "want", domain.EntrySignature.String())
		return nil, fail(zerr.With(err, "got", sig.String()))
	}

	return &ports.EntryHandle{
		Entry:      name,
		Function:   r.function,
		Invocable:  fn,
		Owner:      owner,
		Generation: owner.Generation(),
	}, nil
}

func entryName(units []domain.CompiledUnit) (string, bool) {
	for _, u := range units {
		if !u.IsNested() {
			return u.QualifiedName, true
		}
	}
	return "", false
}

func groupIndex(groups []domain.LoadGroup, name string) int {
	for i, g := range groups {
		if g.Contains(name) {
			return i
		}
	}
	return -1
}

func fail(err error) error {
	return &domain.ReloadError{Op: "resolve entry", Err: err}
}
