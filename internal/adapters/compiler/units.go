package compiler

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// ManifestFileName is an optional file the compiler may write into the output
// directory, listing emitted unit names one per line in emission order.
const ManifestFileName = "emitted.txt"

type emitted struct {
	name string
	file string
}

// readUnits reads every emitted unit back from outDir.
//
// Without a manifest, the unit named after the source comes first and the rest
// follow in lexical order, which keeps nested units after their enclosing unit.
func readUnits(outDir, sourceName, ext string) ([]domain.CompiledUnit, error) {
	list, err := fromManifest(outDir, ext)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list, err = fromGlob(outDir, sourceName, ext)
		if err != nil {
			return nil, err
		}
	}

	units := make([]domain.CompiledUnit, 0, len(list))
	for _, e := range list {
		bin, err := os.ReadFile(e.file) //nolint:gosec // file lives in the per-cycle output directory
		if err != nil {
			return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrCompilerOutputRead, err), "read unit"), "unit", e.name)
		}
		units = append(units, domain.CompiledUnit{QualifiedName: e.name, Binary: bin, OriginPath: e.file})
	}
	return units, nil
}

// fromManifest returns nil when no manifest exists. Manifest names map to
// files directly under outDir.
func fromManifest(outDir, ext string) ([]emitted, error) {
	data, err := os.ReadFile(filepath.Join(outDir, ManifestFileName)) //nolint:gosec // fixed name in output directory
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrCompilerOutputRead, err), "read manifest")
	}

	list := []emitted{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			list = append(list, emitted{name: name, file: filepath.Join(outDir, name+ext)})
		}
	}
	return list, nil
}

// fromGlob names units after their path below outDir, with "/" replaced by ".".
func fromGlob(outDir, sourceName, ext string) ([]emitted, error) {
	matches, err := doublestar.Glob(os.DirFS(outDir), "**/*"+ext, doublestar.WithFilesOnly())
	if err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrCompilerOutputRead, err), "list units")
	}

	list := make([]emitted, 0, len(matches))
	for _, m := range matches {
		list = append(list, emitted{
			name: strings.ReplaceAll(strings.TrimSuffix(m, ext), "/", "."),
			file: filepath.Join(outDir, filepath.FromSlash(m)),
		})
	}
	slices.SortFunc(list, func(a, b emitted) int {
		switch {
		case a.name == b.name:
			return 0
		case a.name == sourceName:
			return -1
		case b.name == sourceName:
			return 1
		default:
			return strings.Compare(a.name, b.name)
		}
	})
	return list, nil
}
