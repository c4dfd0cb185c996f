package wasm

import (
	"context"
	"errors"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Symbol is an instantiated module.
type Symbol struct {
	name   string
	owner  *Context
	module api.Module

	// mu serializes calls into the instance.
	mu sync.Mutex
}

var _ ports.Symbol = (*Symbol)(nil)

// Name returns the qualified name.
func (s *Symbol) Name() string {
	return s.name
}

// Generation returns the generation of the owning context.
func (s *Symbol) Generation() domain.Generation {
	return s.owner.generation
}

// Lookup returns the named exported function.
func (s *Symbol) Lookup(function string) (ports.Function, bool) {
	def, ok := s.module.ExportedFunctionDefinitions()[function]
	if !ok {
		return nil, false
	}
	return &Function{
		symbol: s,
		name:   function,
		sig: domain.Signature{
			Params:  convertTypes(def.ParamTypes()),
			Results: convertTypes(def.ResultTypes()),
		},
	}, true
}

func (s *Symbol) call(ctx context.Context, function string, args ...uint64) ([]uint64, error) {
	if s.owner.isReleased() {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrContextReleased, "invoke"),
			"function", s.name+"."+function), "context", s.owner.id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fn := s.module.ExportedFunction(function)
	if fn == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrSymbolNotFound, "invoke"), "function", s.name+"."+function)
	}
	res, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrEntryInvocationFailed, err), "invoke"),
			"function", s.name+"."+function)
	}
	return res, nil
}

// Function is an exported wasm function.
type Function struct {
	symbol *Symbol
	name   string
	sig    domain.Signature
}

var _ ports.Function = (*Function)(nil)

// Signature returns the function's parameter and result types.
func (f *Function) Signature() domain.Signature {
	return f.sig
}

// Invoke calls the function.
func (f *Function) Invoke(ctx context.Context, args ...uint64) ([]uint64, error) {
	return f.symbol.call(ctx, f.name, args...)
}

func convertTypes(types []api.ValueType) []domain.ValueType {
	if len(types) == 0 {
		return nil
	}
	out := make([]domain.ValueType, len(types))
	for i, t := range types {
		switch t {
		case api.ValueTypeI32:
			out[i] = domain.ValueTypeI32
		case api.ValueTypeI64:
			out[i] = domain.ValueTypeI64
		case api.ValueTypeF32:
			out[i] = domain.ValueTypeF32
		case api.ValueTypeF64:
			out[i] = domain.ValueTypeF64
		default:
			out[i] = domain.ValueTypeOther
		}
	}
	return out
}
