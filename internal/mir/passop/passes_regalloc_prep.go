package passop

import "github.com/dexaot/aotcore/internal/mir"

// runRegisterPromotion walks every instruction in the method once and
// accumulates per-Dalvik-vreg def/use counts plus wide/ref-ness into
// Graph.VregHints. The backend's PromotionMap later ranks
// these hints by total activity to decide which vregs keep a dedicated
// physical register across the whole method instead of being spilled to
// the stack frame between every use.
func runRegisterPromotion(g *mir.Graph, ctx *Context) {
	hint := func(vreg int32) *mir.VregHint {
		h, ok := g.VregHints[vreg]
		if !ok {
			h = &mir.VregHint{}
			g.VregHints[vreg] = h
		}
		return h
	}

	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			wide := isWideOp(m.Opcode)
			ref := isRefOp(m.Opcode)
			for _, d := range m.SSA.Defs {
				h := hint(d)
				h.Defs++
				h.Wide = h.Wide || wide
				h.Ref = h.Ref || ref
			}
			for _, u := range m.SSA.Uses {
				h := hint(u)
				h.Uses++
				h.Wide = h.Wide || wide
				h.Ref = h.Ref || ref
			}
		}
	}
}

func isWideOp(op mir.Opcode) bool {
	switch op {
	case mir.OpMoveWide, mir.OpConstWide, mir.OpReturnWide:
		return true
	default:
		return false
	}
}

func isRefOp(op mir.Opcode) bool {
	switch op {
	case mir.OpMoveObject, mir.OpMoveResult, mir.OpMoveException, mir.OpReturnObject,
		mir.OpConstString, mir.OpConstClass, mir.OpNewInstance, mir.OpNewArray,
		mir.OpFilledNewArray, mir.OpCheckCast:
		return true
	default:
		return false
	}
}

// runTempLiveness computes, for every block, the set of Dalvik reference
// vregs live across its boundary. This is a
// standard backward per-block liveness fixpoint restricted to vregs the
// register-promotion pass already flagged as reference-typed, since only
// those need to appear in a GC map.
func runTempLiveness(g *mir.Graph, ctx *Context) {
	blocks := g.AllBlocks()
	for _, b := range blocks {
		if b.IsDead() {
			continue
		}
		if b.DataFlow == nil {
			b.DataFlow = &mir.DataFlowInfo{}
		}
	}

	maxVreg := int32(-1)
	for vreg, h := range g.VregHints {
		if h.Ref && vreg > maxVreg {
			maxVreg = vreg
		}
	}
	if maxVreg < 0 {
		return
	}
	n := int(maxVreg) + 1

	changed := true
	for changed {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			if b.IsDead() {
				continue
			}
			out := make([]bool, n)
			for _, succID := range blockSuccessors(b) {
				succ := g.Block(succID)
				if succ == nil || succ.DataFlow == nil {
					continue
				}
				for v, live := range succ.DataFlow.LiveRefVregsIn {
					if live && v < n {
						out[v] = true
					}
				}
			}

			in := append([]bool(nil), out...)
			ii := g.Instrs(b)
			var chain []*mir.Instruction
			for m := ii.Next(); m != nil; m = ii.Next() {
				chain = append(chain, m)
			}
			for i := len(chain) - 1; i >= 0; i-- {
				m := chain[i]
				for _, d := range m.SSA.Defs {
					if d >= 0 && int(d) < n {
						in[d] = false
					}
				}
				if g.VregHints != nil {
					for _, u := range m.SSA.Uses {
						if h, ok := g.VregHints[u]; ok && h.Ref && u >= 0 && int(u) < n {
							in[u] = true
						}
					}
				}
			}

			if !boolSliceEqual(b.DataFlow.LiveRefVregsOut, out) || !boolSliceEqual(b.DataFlow.LiveRefVregsIn, in) {
				b.DataFlow.LiveRefVregsOut = out
				b.DataFlow.LiveRefVregsIn = in
				changed = true
			}
		}
	}
}

func blockSuccessors(b *mir.BasicBlock) []mir.BlockID {
	if b.HasSwitch() {
		return b.Successors
	}
	var out []mir.BlockID
	if b.Taken != mir.NullBlockID {
		out = append(out, b.Taken)
	}
	if b.FallThrough != mir.NullBlockID {
		out = append(out, b.FallThrough)
	}
	return out
}

func boolSliceEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
