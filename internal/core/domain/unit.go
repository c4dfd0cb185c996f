package domain

import (
	"bytes"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NestedMarker separates an enclosing unit name from a nested one ("App$Inner").
const NestedMarker = '$'

// CompiledUnit is one unit emitted by the compiler. It is immutable and lives
// for the duration of a single reload cycle.
type CompiledUnit struct {
	QualifiedName string
	Binary        []byte
	// OriginPath is the file the unit was read from.
	OriginPath string
}

// IsNested reports whether the unit's name contains the nested marker.
func (u CompiledUnit) IsNested() bool {
	return strings.IndexByte(u.QualifiedName, NestedMarker) >= 0
}

// FamilyKey returns the unit's family key. See FamilyKey.
func (u CompiledUnit) FamilyKey() string {
	return FamilyKey(u.QualifiedName)
}

// FamilyKey strips everything from the first nested marker onwards.
// Names that use the marker outside of true nesting collide with their prefix.
func FamilyKey(name string) string {
	if i := strings.IndexByte(name, NestedMarker); i >= 0 {
		return name[:i]
	}
	return name
}

// CompileOutput is what a compiler capability returns for one invocation.
type CompileOutput struct {
	// Units are in compiler emission order.
	Units       []CompiledUnit
	Diagnostics []Diagnostic
}

// LoadGroup is an ordered list of units that must share one load context.
type LoadGroup struct {
	Key   string
	Units []CompiledUnit
}

// Names returns the qualified names of the group's units in order.
func (g LoadGroup) Names() []string {
	names := make([]string, len(g.Units))
	for i, u := range g.Units {
		names[i] = u.QualifiedName
	}
	return names
}

// Contains reports whether the group holds a unit with the given qualified name.
func (g LoadGroup) Contains(name string) bool {
	for _, u := range g.Units {
		if u.QualifiedName == name {
			return true
		}
	}
	return false
}

// GroupSignature records the ordered (name, binary) pairs a load context was
// built from. The digest is a fast negative check; equality is byte-exact.
type GroupSignature struct {
	names    []string
	binaries [][]byte
	digest   uint64
}

// NewGroupSignature copies the group's names and binaries.
func NewGroupSignature(g LoadGroup) GroupSignature {
	sig := GroupSignature{
		names:    make([]string, len(g.Units)),
		binaries: make([][]byte, len(g.Units)),
	}
	h := xxhash.New()
	for i, u := range g.Units {
		sig.names[i] = u.QualifiedName
		sig.binaries[i] = bytes.Clone(u.Binary)
		_, _ = h.WriteString(u.QualifiedName)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(u.Binary)
		_, _ = h.Write([]byte{0})
	}
	sig.digest = h.Sum64()
	return sig
}

// Digest returns the xxhash digest over the signature's pairs.
func (s GroupSignature) Digest() uint64 {
	return s.digest
}

// Matches reports whether the group has byte-identical ordered (name, binary) pairs.
func (s GroupSignature) Matches(g LoadGroup) bool {
	if len(s.names) != len(g.Units) {
		return false
	}
	for i, u := range g.Units {
		if s.names[i] != u.QualifiedName || !bytes.Equal(s.binaries[i], u.Binary) {
			return false
		}
	}
	return true
}
