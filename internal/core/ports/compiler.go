// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Compiler is the external compiler capability.
//
//go:generate go run go.uber.org/mock/mockgen -source=compiler.go -destination=mocks/mock_compiler.go -package=mocks
type Compiler interface {
	// Compile compiles the source file against the search path, writing emitted
	// units into outputDir. Units are returned in emission order together with
	// every diagnostic the compiler reported.
	//
	// A source that cannot be parsed at all is reported with an error wrapping
	// domain.ErrUnparseableSource. Any other error means the compiler itself
	// could not be run.
	Compile(ctx context.Context, sourcePath, searchPath, outputDir string) (domain.CompileOutput, error)
}
