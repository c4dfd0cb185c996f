package ports

import "context"

// DependencyResolver is the external dependency-resolution capability.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type DependencyResolver interface {
	// Resolve returns the search path fragment for the given source file.
	// It is called on every reload cycle and must not cache its answer.
	Resolve(ctx context.Context, sourcePath string) (string, error)
}
