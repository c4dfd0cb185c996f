package domain

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a dependency layer by its resolved search path.
// Two fingerprints are equal only when the raw strings are equal, so a
// reordering of otherwise identical entries counts as a change.
type Fingerprint struct {
	raw    string
	digest uint64
}

// NewFingerprint computes the fingerprint of a search path.
func NewFingerprint(searchPath string) Fingerprint {
	return Fingerprint{
		raw:    searchPath,
		digest: xxhash.Sum64String(searchPath),
	}
}

// SearchPath returns the raw search path the fingerprint was computed from.
func (f Fingerprint) SearchPath() string {
	return f.raw
}

// Equal reports whether both fingerprints cover the same raw search path.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.digest == other.digest && f.raw == other.raw
}

// String returns the hex digest, suitable for logs.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", f.digest)
}

// Generation is bumped every time the dependency layer is rebuilt. Every load
// context, symbol and entry handle carries the generation it was created under.
type Generation uint64

// Next returns the following generation.
func (g Generation) Next() Generation {
	return g + 1
}

// String returns "g<N>".
func (g Generation) String() string {
	return fmt.Sprintf("g%d", uint64(g))
}

// Invalidation describes a full dependency-layer rebuild.
type Invalidation struct {
	Previous   Fingerprint
	Current    Fingerprint
	Generation Generation
}
