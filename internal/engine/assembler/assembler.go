// Package assembler builds the dependency search path for a reload cycle.
package assembler

import (
	"context"
	"os"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Assembler joins the caller's search path fragment with the resolver's answer.
type Assembler struct {
	resolver ports.DependencyResolver
}

// New creates an Assembler backed by the given resolver.
func New(resolver ports.DependencyResolver) *Assembler {
	return &Assembler{resolver: resolver}
}

// Assemble returns the full search path for sourcePath and its fingerprint.
// The resolver is queried on every call. Empty parts are skipped.
func (a *Assembler) Assemble(
	ctx context.Context,
	fragment, sourcePath string,
) (string, domain.Fingerprint, error) {
	resolved, err := a.resolver.Resolve(ctx, sourcePath)
	if err != nil {
		return "", domain.Fingerprint{}, &domain.ResolutionError{Source: sourcePath, Err: err}
	}

	searchPath := Join(fragment, resolved)
	return searchPath, domain.NewFingerprint(searchPath), nil
}

// Join concatenates search path parts with the platform list separator,
// skipping empty ones.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, string(os.PathListSeparator))
}
