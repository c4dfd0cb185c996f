// Package grouping partitions compiled units into load groups.
package grouping

import "go.trai.ch/kiln/internal/core/domain"

// Group partitions units by family key.
//
// Units are visited in reverse emission order and groups are emitted in the
// order their key was first seen during that walk. Compilers emit the unit for
// the source file first, so the entry unit lands in the last group and every
// group it depends on precedes it in the chain.
//
// Units within a group keep the visiting order.
func Group(units []domain.CompiledUnit) []domain.LoadGroup {
	if len(units) == 0 {
		return nil
	}

	index := make(map[string]int, len(units))
	groups := make([]domain.LoadGroup, 0, len(units))

	for i := len(units) - 1; i >= 0; i-- {
		u := units[i]
		key := u.FamilyKey()
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, domain.LoadGroup{Key: key})
		}
		groups[pos].Units = append(groups[pos].Units, u)
	}

	return groups
}

// Keys returns the family keys of groups in order.
func Keys(groups []domain.LoadGroup) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}
