package merge

// Package merge folds decoded morpheme-level heads and dependency types
// into an externally parsed phrase/clause tree.

import (
	"bertdep/nlp/format/tree"
)

// Rewire runs one merge pass over a unit list. For each unit, the first
// contained morpheme whose decoded head lies beyond the unit's own span
// determines the unit's new attachment: the dependency type follows the
// morpheme's decoded type, and when the head's owning unit differs from
// the current parent the parent index is reassigned and the unit's
// remaining morphemes are not examined.
func Rewire(units []tree.Unit, headIDs []int, depTypes []string) {
	owner := tree.MorphemeOwner(units)

	for i := range units {
		unit := &units[i]
		lastMorpheme := unit.LastMorpheme()
		for _, morphemeID := range unit.Morphemes {
			headID := headIDs[morphemeID]
			// ROOT: the unit keeps its attachment
			if headID == -1 {
				break
			}
			if headID <= lastMorpheme {
				continue
			}
			newParent := owner[headID]
			if depTypes[morphemeID] != unit.DepType {
				unit.DepType = depTypes[morphemeID]
			}
			if newParent != unit.Parent {
				unit.Parent = newParent
				break
			}
		}
	}
}

// Merge rewires the tree in two independent passes with the same
// algorithm: once over the finer-grained phrase units, once over the
// coarser-grained clause units.
func Merge(t *tree.Tree, headIDs []int, depTypes []string) {
	Rewire(t.Phrases, headIDs, depTypes)
	Rewire(t.Clauses, headIDs, depTypes)
}
