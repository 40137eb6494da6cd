package mir

import (
	"sort"

	"github.com/dexaot/aotcore/dex"
)

// Builder decodes one CodeItem into a Graph.
type Builder struct {
	g    *Graph
	code *dex.CodeItem
}

// NewBuilder prepares a Builder that will populate g from code.
func NewBuilder(g *Graph, code *dex.CodeItem) *Builder {
	return &Builder{g: g, code: code}
}

// decodedInsn is one fully-decoded instruction before it is placed into a
// block.
type decodedInsn struct {
	offset uint32
	width  int
	op     Opcode
	regs   []int32
	imm16  int64
	imm32  int64
	branch int64 // absolute dex PC
	hasBr  bool
}

// scan decodes the entire insns stream once, in offset order. Dalvik code
// is linear and self-describing (every opcode's width is statically
// known), so a single left-to-right pass is sufficient to find every
// instruction boundary — unlike variable-length x86, there is no need to
// discover boundaries via control flow first.
func (b *Builder) scan() []decodedInsn {
	insns := b.code.Insns
	var out []decodedInsn
	pc := 0
	for pc < len(insns) {
		op := Opcode(insns[pc])
		s, ok := shapes[op]
		if !ok {
			// Unknown opcode: the hard filter is responsible
			// for rejecting methods before codegen ever sees this; during
			// Build we still need to make forward progress, so treat an
			// unrecognized unit as a 1-unit nop-shaped placeholder.
			out = append(out, decodedInsn{offset: uint32(pc), width: 1, op: OpNop})
			pc++
			continue
		}
		d := decodedInsn{offset: uint32(pc), op: op}
		cur := pc + 1
		for i := 0; i < s.regs; i++ {
			d.regs = append(d.regs, int32(at(insns, cur)))
			cur++
		}
		if s.imm16 {
			d.imm16 = int64(at(insns, cur))
			cur++
		}
		if s.imm32 {
			lo := uint32(at(insns, cur))
			hi := uint32(at(insns, cur+1))
			d.imm32 = int64(uint64(hi)<<16 | uint64(lo))
			cur += 2
		}
		if s.branch {
			delta := int16(at(insns, cur))
			d.branch = int64(pc) + int64(delta)
			d.hasBr = true
			cur++
		}
		if s.switchRef {
			d.imm16 = int64(at(insns, cur)) // reuse imm16 slot for the switch payload index
			cur++
		}
		if s.fieldIdx {
			d.imm16 = int64(at(insns, cur))
			cur++
		}
		if s.methodIdx {
			// method index follows imm16 (argCount) per instr_format.go's
			// declared field order for invoke opcodes.
			d.imm32 = int64(at(insns, cur))
			cur++
		}
		d.width = cur - pc
		out = append(out, d)
		pc = cur
	}
	return out
}

func at(insns []uint16, i int) uint16 {
	if i < 0 || i >= len(insns) {
		return 0
	}
	return insns[i]
}

// Build decodes the CodeItem and populates the Graph: basic blocks split
// on branches, switch targets, exception handlers, and fall-through
// after returns/throws. Block ids are assigned in allocation order
// (entry, exit, then one block per start offset in ascending offset
// order), not in reverse-post-order; the DFS's reverse-post-order is
// recorded separately and served by Graph.RPO.
func (b *Builder) Build() *Graph {
	g := b.g
	insns := b.scan()
	byOffset := make(map[uint32]int, len(insns)) // dex PC -> index into insns
	for i, d := range insns {
		byOffset[d.offset] = i
	}

	starts := map[uint32]bool{}
	if len(insns) > 0 {
		starts[0] = true
	}
	for _, h := range b.code.Tries {
		// handlerOff in this module's simplified model directly names the
		// handler's starting dex PC (the indirection through a separate
		// handlers-list offset table is the external loader's concern).
		starts[uint32(h.HandlerOff)] = true
	}
	for _, d := range insns {
		if d.hasBr {
			starts[uint32(d.branch)] = true
			if next := d.offset + uint32(d.width); int(next) < len(b.code.Insns) {
				starts[next] = true // fall-through side of a conditional branch
			}
		}
		if d.op == OpPackedSwitch || d.op == OpSparseSwitch {
			if next := d.offset + uint32(d.width); true {
				starts[next] = true
			}
		}
		if d.op.IsTerminator() && !d.op.IsBranch() {
			if next := d.offset + uint32(d.width); int(next) < len(b.code.Insns) {
				starts[next] = true
			}
		}
	}

	var ordered []uint32
	for o := range starts {
		ordered = append(ordered, o)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	entry := g.allocBlock(BlockEntry)
	g.EntryID = entry.ID()
	exit := g.allocBlock(BlockExit)
	g.ExitID = exit.ID()

	blockByStart := make(map[uint32]BlockID, len(ordered))
	type pending struct {
		blk        *BasicBlock
		startIdx   int // index into insns
		endIdxExcl int
	}
	var pendings []pending
	for i, start := range ordered {
		typ := BlockDalvikByteCode
		if isCatchStart(b.code, start) {
			typ = BlockCatch
		}
		blk := g.allocBlock(typ)
		blk.StartOffset = start
		blockByStart[start] = blk.ID()
		startIdx := byOffset[start]
		endIdx := len(insns)
		if i+1 < len(ordered) {
			endIdx = byOffset[ordered[i+1]]
		}
		pendings = append(pendings, pending{blk: blk, startIdx: startIdx, endIdxExcl: endIdx})
	}

	if len(ordered) > 0 {
		entry.FallThrough = blockByStart[ordered[0]]
		entry.Successors = append(entry.Successors, entry.FallThrough)
	} else {
		entry.FallThrough = exit.ID()
	}

	for _, p := range pendings {
		blk := p.blk
		var last *decodedInsn
		for idx := p.startIdx; idx < p.endIdxExcl; idx++ {
			d := insns[idx]
			last = &insns[idx]
			instr := g.allocInstr()
			instr.Opcode = d.op
			instr.Offset = d.offset
			populateSSA(instr, d)
			populateOperandsAndMeta(g, instr, d)
			g.AppendInstr(blk, instr)
		}
		if last == nil {
			// Empty block (can happen for a dangling catch start with no
			// reachable code): treat as straight fall-through to Exit.
			blk.FallThrough = exit.ID()
			blk.Successors = append(blk.Successors, exit.ID())
			continue
		}
		wireEdges(g, blk, *last, blockByStart, exit.ID())
	}

	for _, h := range b.code.Handlers {
		if id, ok := blockByStart[h.Addr]; ok {
			g.CatchEntries[h.Addr] = id
		}
	}

	computePredecessors(g)
	computeReversePostOrder(g)
	return g
}

func isCatchStart(code *dex.CodeItem, offset uint32) bool {
	for _, h := range code.Handlers {
		if h.Addr == offset {
			return true
		}
	}
	return false
}

func populateSSA(instr *Instruction, d decodedInsn) {
	defs, uses := defUse(d.op, d.regs)
	instr.SSA = SSARep{Defs: defs, Uses: uses}
}

// defUse classifies each decoded register operand as a definition or a
// use, opcode by opcode. This mirrors (in spirit, not byte layout) the
// per-opcode dataflow tables original_source/compiler/dex/mir_analysis.cc
// drives from (the kDfa* flag tables ART generates per opcode).
func defUse(op Opcode, regs []int32) (defs, uses []int32) {
	switch op {
	case OpMove, OpMoveWide, OpMoveObject, OpNeg, OpNot, OpIntToLong, OpIntToFloat, OpIntToDouble:
		return regs[:1], regs[1:2]
	case OpMoveResult, OpMoveException:
		return regs[:1], nil
	case OpReturn, OpReturnWide, OpReturnObject, OpThrow, OpMonitorEnter, OpMonitorExit:
		return nil, regs[:1]
	case OpConst, OpConstWide, OpConstString, OpConstClass, OpNewInstance:
		return regs[:1], nil
	case OpCheckCast:
		return nil, regs[:1]
	case OpInstanceOf, OpArrayLength:
		return regs[:1], regs[1:2]
	case OpNewArray:
		return regs[:1], regs[1:2]
	case OpFilledNewArray:
		return nil, regs
	case OpFillArrayData, OpPackedSwitch, OpSparseSwitch:
		return nil, regs[:1]
	case OpIfEq, OpIfNe, OpIfLt, OpIfGe, OpIfGt, OpIfLe:
		return nil, regs
	case OpAget:
		return regs[:1], regs[1:3]
	case OpAput:
		return nil, regs
	case OpIget, OpIGetQuick:
		return regs[:1], regs[1:2]
	case OpIput, OpIPutQuick:
		return nil, regs
	case OpSget:
		return regs[:1], nil
	case OpSput:
		return nil, regs[:1]
	case OpCmp, OpAdd, OpSub, OpMul, OpDiv, OpRem, OpAnd, OpOr, OpXor, OpShl, OpShr, OpUshr:
		return regs[:1], regs[1:3]
	case OpInvokeVirtual, OpInvokeSuper, OpInvokeDirect, OpInvokeStatic, OpInvokeInterface, OpInvokeVirtualQuick:
		return nil, regs
	default:
		return nil, nil
	}
}

func populateOperandsAndMeta(g *Graph, instr *Instruction, d decodedInsn) {
	switch {
	case d.op == OpConst || d.op == OpConstWide:
		instr.Operands[0] = d.imm32
	case d.op == OpConstString || d.op == OpConstClass || d.op == OpCheckCast ||
		d.op == OpInstanceOf || d.op == OpNewInstance || d.op == OpNewArray || d.op == OpFilledNewArray:
		instr.Operands[0] = d.imm16
	case d.op == OpFillArrayData || d.op == OpPackedSwitch || d.op == OpSparseSwitch:
		instr.Operands[0] = d.imm16 // switch/fill-array-data payload table index
	case d.hasBr:
		instr.Operands[0] = d.branch
	}

	if d.op.IsFieldOp() {
		idx := g.Fields.Insert(d.imm16, d.op.IsStaticFieldOp(), d.op.IsQuickened(), int64(d.offset))
		instr.Meta = Meta{Kind: MetaFieldInfoIndex, Index: idx}
	}
	if d.op.IsInvoke() {
		instr.Operands[2] = d.imm16 // argument count
		idx := g.Methods.Insert(uint32(d.imm32), invokeKindOf(d.op), d.op.IsQuickened())
		instr.Meta = Meta{Kind: MetaMethodInfoIndex, Index: idx}
	}
}

func invokeKindOf(op Opcode) dex.InvokeType {
	switch op {
	case OpInvokeDirect:
		return dex.InvokeDirect
	case OpInvokeStatic:
		return dex.InvokeStatic
	case OpInvokeSuper:
		return dex.InvokeSuper
	case OpInvokeInterface:
		return dex.InvokeInterface
	default:
		return dex.InvokeVirtual
	}
}

func wireEdges(g *Graph, blk *BasicBlock, last decodedInsn, blockByStart map[uint32]BlockID, exitID BlockID) {
	switch {
	case last.op == OpPackedSwitch || last.op == OpSparseSwitch:
		// Switch targets live in the payload table referenced by
		// Operands[0], which Build does not decode; it leaves Successors
		// empty and both Taken/FallThrough Null here. Graph.SetSwitchTargets
		// can fill Successors in later; nothing in this module calls it.
		blk.Taken = NullBlockID
		blk.FallThrough = NullBlockID
	case last.op == OpGoto:
		blk.Taken = resolveTarget(blockByStart, uint32(last.branch), exitID)
		blk.Successors = append(blk.Successors, blk.Taken)
	case last.op.IsBranch():
		blk.Taken = resolveTarget(blockByStart, uint32(last.branch), exitID)
		next := last.offset + uint32(last.width)
		blk.FallThrough = resolveTarget(blockByStart, next, exitID)
		blk.Successors = append(blk.Successors, blk.Taken, blk.FallThrough)
	case last.op == OpReturnVoid || last.op == OpReturn || last.op == OpReturnWide ||
		last.op == OpReturnObject || last.op == OpThrow:
		blk.Taken = exitID
		blk.Successors = append(blk.Successors, exitID)
	default:
		next := last.offset + uint32(last.width)
		blk.FallThrough = resolveTarget(blockByStart, next, exitID)
		blk.Successors = append(blk.Successors, blk.FallThrough)
	}
}

func resolveTarget(blockByStart map[uint32]BlockID, offset uint32, exitID BlockID) BlockID {
	if id, ok := blockByStart[offset]; ok {
		return id
	}
	return exitID
}

// SetSwitchTargets lets the backend's switch lowering fill in
// a switch block's Successors once it has decoded the payload table,
// without Build needing to understand switch-payload encoding itself.
func (g *Graph) SetSwitchTargets(blk *BasicBlock, targets []BlockID) {
	blk.Successors = append(blk.Successors[:0], targets...)
	blk.Taken = NullBlockID
	blk.FallThrough = NullBlockID
}

func computePredecessors(g *Graph) {
	for i := 0; i < g.numBlocks; i++ {
		b := g.Block(BlockID(i))
		for _, s := range b.Successors {
			if s == NullBlockID {
				continue
			}
			succ := g.Block(s)
			succ.Predecessors = append(succ.Predecessors, b.id)
		}
	}
}

// computeReversePostOrder performs the DFS from Entry. Block ids
// themselves were already assigned at allocation time in discovery
// order; reversePostOrder instead records the *visitation* order that
// every pass and the backend's block scheduling walk blocks in, which is independent of (and doesn't renumber)
// BlockID.
func computeReversePostOrder(g *Graph) {
	visited := make([]bool, g.numBlocks)
	var post []BlockID
	type frame struct {
		id   BlockID
		next int
	}
	var frames []frame
	push := func(id BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		frames = append(frames, frame{id: id})
	}
	push(g.EntryID)
	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		b := g.Block(f.id)
		if f.next < len(b.Successors) {
			s := b.Successors[f.next]
			f.next++
			if s != NullBlockID && !visited[s] {
				push(s)
			}
			continue
		}
		post = append(post, f.id)
		frames = frames[:len(frames)-1]
	}
	for i := len(post) - 1; i >= 0; i-- {
		g.reversePostOrder = append(g.reversePostOrder, post[i])
	}
}
