// Package compilation turns compiler capability results into reload outcomes.
package compilation

import (
	"context"
	"errors"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Adapter invokes the compiler capability for one source file.
type Adapter struct {
	compiler ports.Compiler
	logger   ports.Logger
}

// New creates an Adapter.
func New(compiler ports.Compiler, logger ports.Logger) *Adapter {
	return &Adapter{compiler: compiler, logger: logger}
}

// Compile compiles sourcePath against searchPath and returns the emitted units
// in emission order.
//
// Error diagnostics and unparseable sources fail with *domain.CompileError.
// Failures of the compiler itself fail with *domain.ReloadError.
func (a *Adapter) Compile(
	ctx context.Context,
	sourcePath, searchPath, outputDir string,
) ([]domain.CompiledUnit, error) {
	out, err := a.compiler.Compile(ctx, sourcePath, searchPath, outputDir)
	if err != nil {
		if errors.Is(err, domain.ErrUnparseableSource) {
			return nil, &domain.CompileError{
				Source:      sourcePath,
				Diagnostics: append(out.Diagnostics, unparseable(sourcePath, err)),
			}
		}
		return nil, &domain.ReloadError{Op: "compile", Err: err}
	}

	if domain.HasErrors(out.Diagnostics) {
		return nil, &domain.CompileError{Source: sourcePath, Diagnostics: out.Diagnostics}
	}

	for _, d := range out.Diagnostics {
		a.logger.Warn(d.String())
	}

	if len(out.Units) == 0 {
		return nil, &domain.ReloadError{
			Op:  "compile",
			Err: errors.Join(domain.ErrNoCompiledUnits, zerr.With(zerr.New("empty compiler output"), "source", sourcePath)),
		}
	}

	return out.Units, nil
}

func unparseable(sourcePath string, err error) domain.Diagnostic {
	return domain.Diagnostic{
		Severity: domain.SeverityError,
		Origin:   sourcePath,
		Message:  err.Error(),
	}
}
