package grouping_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/grouping"
)

func units(names ...string) []domain.CompiledUnit {
	out := make([]domain.CompiledUnit, len(names))
	for i, n := range names {
		out[i] = domain.CompiledUnit{QualifiedName: n, Binary: []byte(n)}
	}
	return out
}

func TestGroup_NestedSharesGroup(t *testing.T) {
	groups := grouping.Group(units("A", "A$Inner", "B"))

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"B", "A"}, grouping.Keys(groups))
	assert.Equal(t, []string{"B"}, groups[0].Names())
	assert.Equal(t, []string{"A$Inner", "A"}, groups[1].Names())
}

func TestGroup_FamilyMembershipIgnoresOrder(t *testing.T) {
	tests := []struct {
		name  string
		order []string
	}{
		{"outer first", []string{"A", "A$Inner", "B"}},
		{"reversed", []string{"B", "A$Inner", "A"}},
		{"nested first", []string{"A$Inner", "B", "A"}},
		{"nested last", []string{"B", "A", "A$Inner"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := grouping.Group(units(tt.order...))

			require.Len(t, groups, 2)
			assert.ElementsMatch(t, []string{"A", "B"}, grouping.Keys(groups))
			for _, g := range groups {
				switch g.Key {
				case "A":
					assert.ElementsMatch(t, []string{"A", "A$Inner"}, g.Names())
				case "B":
					assert.Equal(t, []string{"B"}, g.Names())
				}
			}
		})
	}
}

func TestGroup_EntryLandsLast(t *testing.T) {
	groups := grouping.Group(units("App", "App$1", "Util", "Util$Helper", "Model"))

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"Model", "Util", "App"}, grouping.Keys(groups))
	assert.True(t, groups[len(groups)-1].Contains("App"))
}

func TestGroup_InterleavedFamilies(t *testing.T) {
	groups := grouping.Group(units("App", "Util", "App$Inner", "Util$Inner"))

	require.Len(t, groups, 2)
	assert.Equal(t, []string{"Util", "App"}, grouping.Keys(groups))
	assert.Equal(t, []string{"Util$Inner", "Util"}, groups[0].Names())
	assert.Equal(t, []string{"App$Inner", "App"}, groups[1].Names())
}

func TestGroup_MarkerOutsideNestingCollides(t *testing.T) {
	// "Helper$Gen" is a top-level unit that happens to use the marker; it is
	// grouped with "Helper" rather than split out.
	groups := grouping.Group(units("App", "Helper", "Helper$Gen", "$Synthetic"))

	require.Len(t, groups, 3)
	assert.Equal(t, []string{"", "Helper", "App"}, grouping.Keys(groups))
	assert.Equal(t, []string{"$Synthetic"}, groups[0].Names())
	assert.Equal(t, []string{"Helper$Gen", "Helper"}, groups[1].Names())
}

func TestGroup_Deterministic(t *testing.T) {
	in := units("App", "App$A", "Lib", "App$B", "Lib$X")
	first := grouping.Group(in)
	for range 10 {
		assert.Equal(t, first, grouping.Group(in))
	}
}

func TestGroup_Empty(t *testing.T) {
	assert.Empty(t, grouping.Group(nil))
	assert.Empty(t, grouping.Keys(nil))
}
