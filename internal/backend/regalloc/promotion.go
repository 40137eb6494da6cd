package regalloc

import "sort"

// PromotionMap records which Dalvik vregs keep a dedicated physical
// register for a method's whole lifetime.
type PromotionMap struct {
	entries map[int32]VReg
}

// VregActivity is the register-promotion pass's per-vreg summary
// (mirrors internal/mir.VregHint without importing mir from this
// package, avoiding a backend<->mir dependency cycle wazero's own
// backend/ssa split also avoids). Class is decided by the caller, which
// has the type information (from dex shorty/field descriptors) this
// package deliberately doesn't need to know about.
type VregActivity struct {
	Vreg  int32
	Score int // typically Defs+Uses
	Class Class
}

// BuildPromotionMap ranks activity by Score descending and greedily
// assigns the busiest vregs to the coreCount/fpCount physical registers
// the Machine reserves for promotion (distinct from the temp pool an
// Allocator otherwise hands out), matching wazero's rank-and-
// assign style register promotion heuristics in spirit though not
// algorithm.
func BuildPromotionMap(activity []VregActivity, coreCount, fpCount int) PromotionMap {
	sorted := append([]VregActivity(nil), activity...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	pm := PromotionMap{entries: map[int32]VReg{}}
	coreUsed, fpUsed := 0, 0
	for _, a := range sorted {
		if a.Class == ClassFP {
			if fpUsed >= fpCount {
				continue
			}
			pm.entries[a.Vreg] = Pack(ClassFP, fpUsed)
			fpUsed++
		} else {
			if coreUsed >= coreCount {
				continue
			}
			pm.entries[a.Vreg] = Pack(ClassCore, coreUsed)
			coreUsed++
		}
	}
	return pm
}

// Lookup reports the promoted physical register for a Dalvik vreg, if
// any.
func (p PromotionMap) Lookup(vreg int32) (VReg, bool) {
	v, ok := p.entries[vreg]
	return v, ok
}
