package passop

import "github.com/dexaot/aotcore/internal/mir"

// runNullCheckElimination marks later uses of a vreg as not needing an
// implicit null check once that vreg has already been dereferenced (an
// Iget/Iput/Aget/Aput/ArrayLength/MonitorEnter) or freshly constructed
// (NewInstance/NewArray) earlier in the same block without an
// intervening redefinition.
func runNullCheckElimination(g *mir.Graph, ctx *Context) {
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		nonNull := map[int32]bool{}
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			if usesObjectRefFirstUse(m.Opcode) && len(m.SSA.Uses) > 0 {
				if nonNull[m.SSA.Uses[0]] {
					m.Flags |= mir.FlagNullCheckEliminated
					ctx.Statistics.NullChecksEliminated++
				} else {
					nonNull[m.SSA.Uses[0]] = true
				}
			}
			for _, d := range m.SSA.Defs {
				delete(nonNull, d)
			}
			if m.Opcode == mir.OpNewInstance || m.Opcode == mir.OpNewArray {
				for _, d := range m.SSA.Defs {
					nonNull[d] = true
				}
			}
		}
	}
}

func usesObjectRefFirstUse(op mir.Opcode) bool {
	switch op {
	case mir.OpIget, mir.OpIput, mir.OpIGetQuick, mir.OpIPutQuick,
		mir.OpAget, mir.OpAput, mir.OpArrayLength, mir.OpMonitorEnter, mir.OpMonitorExit:
		return true
	default:
		return false
	}
}

// runClassInitCheckElimination marks a static field access as not
// needing a class-initialization check once an earlier Sget/Sput in the
// same block already forced initialization of the same field's
// lowering-cache entry (the two share a declaring class in practice;
// this module tracks it at field-cache-entry granularity, which is a
// conservative but sound approximation of ART's own per-class
// resolved_statics bitmap).
func runClassInitCheckElimination(g *mir.Graph, ctx *Context) {
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		seen := map[int32]bool{}
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			if m.Opcode != mir.OpSget && m.Opcode != mir.OpSput {
				continue
			}
			entry := g.Fields.Get(m.Meta.Index)
			classKey := entry.FieldIdx // approximation: field idx stands in for declaring-class idx
			if seen[int32(classKey)] {
				m.Flags |= mir.FlagClassInitChecked
				ctx.Statistics.ClassInitChecksEliminated++
			} else {
				seen[int32(classKey)] = true
			}
		}
	}
}
