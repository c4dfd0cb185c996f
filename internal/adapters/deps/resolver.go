// Package deps resolves the dependency search path from glob patterns.
package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// GlobResolver implements ports.DependencyResolver by expanding doublestar
// patterns relative to a project root on every call.
type GlobResolver struct {
	root     string
	patterns []string
}

var _ ports.DependencyResolver = (*GlobResolver)(nil)

// NewGlobResolver creates a resolver for the given root and patterns.
func NewGlobResolver(root string, patterns []string) *GlobResolver {
	return &GlobResolver{root: root, patterns: slices.Clone(patterns)}
}

// Resolve returns every matching file as an absolute path, joined with
// os.PathListSeparator. Matches keep pattern order and are sorted within a
// pattern. A file matched by several patterns appears once, at its first match.
// The source file itself is never part of the search path.
func (r *GlobResolver) Resolve(ctx context.Context, sourcePath string) (string, error) {
	source, err := filepath.Abs(sourcePath)
	if err != nil {
		source = sourcePath
	}

	fsys := os.DirFS(r.root)
	seen := make(map[string]struct{})
	var entries []string

	for _, pattern := range r.patterns {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern),
			doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			if errors.Is(err, doublestar.ErrBadPattern) {
				return "", zerr.With(zerr.Wrap(domain.ErrInvalidSearchPattern, "resolve dependencies"), "pattern", pattern)
			}
			return "", zerr.With(zerr.Wrap(errors.Join(domain.ErrSearchPathEntry, err), "resolve dependencies"),
				"pattern", pattern)
		}
		slices.Sort(matches)

		for _, m := range matches {
			abs := filepath.Join(r.root, filepath.FromSlash(m))
			if abs == source {
				continue
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}
			entries = append(entries, abs)
		}
	}

	return strings.Join(entries, string(os.PathListSeparator)), nil
}
