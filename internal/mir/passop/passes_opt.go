package passop

import "github.com/dexaot/aotcore/internal/mir"

// gvnKey identifies a pure, redundant-if-repeated computation: an
// opcode plus its current use-vreg values (not the defined vreg, which
// may differ between the two occurrences).
type gvnKey struct {
	op   mir.Opcode
	a, b int32
}

// runGVN is a block-local common-subexpression elimination: a second,
// identical pure arithmetic/compare instruction with the same operands
// as an earlier one in the same block is rewritten to a Move from the
// first instruction's result instead of recomputing it. This is global
// value numbering in the weak, block-scoped sense this pass list
// calls for without requiring full dominator-tree value numbering.
func runGVN(g *mir.Graph, ctx *Context) {
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		seen := map[gvnKey]int32{} // key -> defining vreg
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			if !isPure(m.Opcode) || len(m.SSA.Defs) != 1 {
				continue
			}
			var key gvnKey
			key.op = m.Opcode
			if len(m.SSA.Uses) > 0 {
				key.a = m.SSA.Uses[0]
			}
			if len(m.SSA.Uses) > 1 {
				key.b = m.SSA.Uses[1]
			}
			if def, ok := seen[key]; ok && def != m.SSA.Defs[0] {
				// Rewrite in place to a pure copy; the backend treats a
				// self-move-shaped instruction as redundant at emission.
				m.Opcode = mir.OpMove
				m.SSA.Uses = []int32{def}
				ctx.Statistics.InstructionsFolded++
			} else {
				seen[key] = m.SSA.Defs[0]
			}
		}
	}
}

func isPure(op mir.Opcode) bool {
	switch op {
	case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpAnd, mir.OpOr, mir.OpXor,
		mir.OpShl, mir.OpShr, mir.OpUshr, mir.OpCmp, mir.OpNeg, mir.OpNot:
		return true
	default:
		return false
	}
}

func hasSideEffect(op mir.Opcode) bool {
	switch op {
	case mir.OpIput, mir.OpSput, mir.OpAput, mir.OpMonitorEnter, mir.OpMonitorExit,
		mir.OpThrow, mir.OpReturn, mir.OpReturnVoid, mir.OpReturnWide, mir.OpReturnObject,
		mir.OpCheckCast, mir.OpNewInstance, mir.OpNewArray, mir.OpFilledNewArray,
		mir.OpFillArrayData, mir.OpGoto, mir.OpPackedSwitch, mir.OpSparseSwitch,
		mir.OpMoveResult, mir.OpMoveException:
		return true
	default:
		return op.IsInvoke() || op.IsBranch()
	}
}

// runDCE removes instructions whose single definition is never used
// anywhere else in the method and which carry no observable side effect
// . Instructions are
// unlinked from their block's MIR list; their storage stays in the
// arena pool but is simply no
// longer reachable from any block.
func runDCE(g *mir.Graph, ctx *Context) {
	used := map[int32]bool{}
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			for _, u := range m.SSA.Uses {
				used[u] = true
			}
		}
	}

	it = g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		var prev *mir.Instruction
		id := blk.FirstMIR
		for id != mir.InvalidID {
			m := g.Instr(id)
			next := m.Next
			dead := !hasSideEffect(m.Opcode) && len(m.SSA.Defs) == 1 && !used[m.SSA.Defs[0]]
			if dead {
				if prev == nil {
					blk.FirstMIR = next
				} else {
					prev.Next = next
				}
				if blk.LastMIR == id {
					blk.LastMIR = prevID(prev)
				}
				ctx.Statistics.InstructionsEliminated++
			} else {
				prev = m
			}
			id = next
		}
	}
}

func prevID(prev *mir.Instruction) mir.ID {
	if prev == nil {
		return mir.InvalidID
	}
	return prev.ID()
}

// runConstantFolding folds a pure arithmetic instruction whose operands
// are both known-constant earlier in the same block. Folded instructions become OpConst carrying
// the computed value.
func runConstantFolding(g *mir.Graph, ctx *Context) {
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		consts := map[int32]int64{}
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			if m.Opcode == mir.OpConst && len(m.SSA.Defs) == 1 {
				consts[m.SSA.Defs[0]] = m.Operands[0]
				continue
			}
			if !isPure(m.Opcode) || len(m.SSA.Uses) != 2 || len(m.SSA.Defs) != 1 {
				continue
			}
			a, aok := consts[m.SSA.Uses[0]]
			b, bok := consts[m.SSA.Uses[1]]
			if !aok || !bok {
				continue
			}
			v, ok := foldBinary(m.Opcode, a, b)
			if !ok {
				continue
			}
			m.Opcode = mir.OpConst
			m.Operands[0] = v
			m.SSA.Uses = nil
			consts[m.SSA.Defs[0]] = v
			ctx.Statistics.InstructionsFolded++
		}
	}
}

func foldBinary(op mir.Opcode, a, b int64) (int64, bool) {
	switch op {
	case mir.OpAdd:
		return a + b, true
	case mir.OpSub:
		return a - b, true
	case mir.OpMul:
		return a * b, true
	case mir.OpAnd:
		return a & b, true
	case mir.OpOr:
		return a | b, true
	case mir.OpXor:
		return a ^ b, true
	case mir.OpShl:
		return a << uint(b&63), true
	case mir.OpShr:
		return a >> uint(b&63), true
	case mir.OpDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case mir.OpRem:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	default:
		return 0, false
	}
}

// runLoadStoreElimination removes an Iget/Sget that immediately re-reads
// a field just written by an Iput/Sput to the same lowering-cache entry
// earlier in the block with no intervening call or store that could
// alias it.
func runLoadStoreElimination(g *mir.Graph, ctx *Context) {
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		lastStoreValue := map[int32]int32{} // field cache idx -> vreg most recently stored
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			switch {
			case m.Opcode == mir.OpIput || m.Opcode == mir.OpSput:
				if len(m.SSA.Uses) > 0 {
					lastStoreValue[m.Meta.Index] = m.SSA.Uses[len(m.SSA.Uses)-1]
				}
			case m.Opcode == mir.OpIget || m.Opcode == mir.OpSget:
				if v, ok := lastStoreValue[m.Meta.Index]; ok && len(m.SSA.Defs) == 1 {
					m.Opcode = mir.OpMove
					m.SSA.Uses = []int32{v}
					ctx.Statistics.InstructionsFolded++
				}
			case m.Opcode.IsInvoke() || m.Opcode == mir.OpMonitorEnter || m.Opcode == mir.OpMonitorExit:
				for k := range lastStoreValue {
					delete(lastStoreValue, k)
				}
			}
		}
	}
}

// runBBCombine merges a block into its sole successor when that
// successor has exactly one predecessor and the merge doesn't cross a
// catch boundary. The successor's MIR
// list is appended to the predecessor's, and the predecessor adopts the
// successor's edges; the successor itself is marked Dead rather than
// removed from the pool.
func runBBCombine(g *mir.Graph, ctx *Context) {
	changed := true
	for changed {
		changed = false
		it := g.RPO()
		for blk := it.Next(); blk != nil; blk = it.Next() {
			if blk.Type == mir.BlockEntry || blk.Type == mir.BlockExit {
				continue
			}
			if blk.Taken != mir.NullBlockID || len(blk.Successors) != 1 {
				continue
			}
			succID := blk.FallThrough
			if succID == mir.NullBlockID {
				continue
			}
			succ := g.Block(succID)
			if succ.Type == mir.BlockEntry || succ.Type == mir.BlockExit || succ.Type == mir.BlockCatch {
				continue
			}
			if len(succ.Predecessors) != 1 || succ.Predecessors[0] != blk.ID() {
				continue
			}
			mergeBlocks(g, blk, succ)
			changed = true
			ctx.Statistics.BlocksCombined++
		}
	}
}

func mergeBlocks(g *mir.Graph, pred, succ *mir.BasicBlock) {
	if pred.FirstMIR == mir.InvalidID {
		pred.FirstMIR = succ.FirstMIR
	} else if succ.FirstMIR != mir.InvalidID {
		g.Instr(pred.LastMIR).Next = succ.FirstMIR
	}
	if succ.LastMIR != mir.InvalidID {
		pred.LastMIR = succ.LastMIR
	}
	for i := succ.FirstMIR; i != mir.InvalidID; {
		m := g.Instr(i)
		m.BB = pred.ID()
		i = m.Next
	}
	pred.Taken = succ.Taken
	pred.FallThrough = succ.FallThrough
	pred.Successors = append(pred.Successors[:0], succ.Successors...)
	for _, sID := range succ.Successors {
		if sID == mir.NullBlockID {
			continue
		}
		s := g.Block(sID)
		for i, p := range s.Predecessors {
			if p == succ.ID() {
				s.Predecessors[i] = pred.ID()
			}
		}
	}
	succ.Type = mir.BlockDead
	succ.FirstMIR, succ.LastMIR = mir.InvalidID, mir.InvalidID
	succ.Successors = nil
	succ.Predecessors = nil
	succ.Taken, succ.FallThrough = mir.NullBlockID, mir.NullBlockID
}
