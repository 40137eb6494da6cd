package backend

import (
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/mir"
)

// CompilationUnit is the per-method backend context: one LIR Graph, one
// register Allocator, and the bookkeeping block scheduling and
// safepoint emission accumulate.
type CompilationUnit struct {
	Machine Machine
	LIR     *Graph
	Regs    *regalloc.Allocator
	Pool    regalloc.PromotionMap
	Pool2   LiteralPool
	Safe    SafepointRecorder

	labels          map[mir.BlockID]LIRID
	pendingBranches []pendingBranch
}

type pendingBranch struct {
	lir    LIRID
	target mir.BlockID
}

// NewCompilationUnit wires a fresh CompilationUnit for one method's
// compilation on the given Machine, with the register pool sized from
// that Machine's physical register file.
func NewCompilationUnit(m Machine) *CompilationUnit {
	return &CompilationUnit{
		Machine: m,
		LIR:     NewGraph(),
		Regs:    regalloc.NewAllocator(m.CoreRegCount(), m.FPRegCount()),
		labels:  map[mir.BlockID]LIRID{},
	}
}

// Reset discards this unit's LIR graph and register state so it can be
// reused for the worker's next method.
func (c *CompilationUnit) Reset(m Machine) {
	c.LIR.Reset()
	c.Regs = regalloc.NewAllocator(m.CoreRegCount(), m.FPRegCount())
	c.Pool = regalloc.PromotionMap{}
	c.Pool2 = LiteralPool{}
	c.Safe = SafepointRecorder{}
	for k := range c.labels {
		delete(c.labels, k)
	}
}

// ScheduleBlocks walks g's blocks in the build-time reverse-post-order
// and dispatches every MIR instruction to the Machine. The layout order
// is that RPO, not a pre-order DFS; the two differ whenever a block has
// more than one successor.
func (c *CompilationUnit) ScheduleBlocks(g *mir.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	it := g.RPO()
	var order []*mir.BasicBlock
	for blk := it.Next(); blk != nil; blk = it.Next() {
		order = append(order, blk)
	}

	for i, blk := range order {
		label := c.LIR.Append(LIROpLabel, blk.ID())
		c.labels[blk.ID()] = label.ID()

		if blk.Type == mir.BlockEntry {
			c.Machine.EmitPrologue(c.LIR, frameSize, coreSpillMask, fpSpillMask)
		}

		ii := g.Instrs(blk)
		idx := 0
		for m := ii.Next(); m != nil; m = ii.Next() {
			c.Machine.LowerMIR(c.LIR, c.Regs, c.Pool, m)
			if m.Opcode.IsInvoke() {
				sp := c.LIR.Append(LIROpSafepointPC, nil)
				c.Safe.Record(sp.ID(), m.Offset, LiveRefBitmap(g, blk, idx))
			}
			idx++
		}

		if blk.Type == mir.BlockExit {
			c.Machine.EmitEpilogue(c.LIR, frameSize, coreSpillMask, fpSpillMask)
		}

		if needsExplicitBranch(blk, order, i) {
			br := c.Machine.EmitUnconditionalBranch(c.LIR, InvalidLIRID)
			c.pendingBranches = append(c.pendingBranches, pendingBranch{lir: br.ID(), target: blk.FallThrough})
		}
	}

	c.resolvePendingBranches()
}

// resolvePendingBranches patches every explicit fall-through branch
// EmitUnconditionalBranch appended during the single forward walk above
// to its target block's label, now that every block's label exists
// .
func (c *CompilationUnit) resolvePendingBranches() {
	for _, pb := range c.pendingBranches {
		if lbl, ok := c.labels[pb.target]; ok {
			c.LIR.Get(pb.lir).Target = lbl
		}
	}
	c.pendingBranches = nil
}

// BlockNativeOffset returns the native code offset assigned to block id's
// label, once the assembler's assign-offsets pass has run on c.LIR. Used
// by the packager to translate mir.Graph.CatchEntries (dex PC -> block
// id) into the mapping table's dex-PC -> native-PC catch entries.
func (c *CompilationUnit) BlockNativeOffset(id mir.BlockID) (int, bool) {
	lbl, ok := c.labels[id]
	if !ok {
		return 0, false
	}
	return c.LIR.Get(lbl).NativeOffset, true
}

func maxInstrIndex(g *mir.Graph, b *mir.BasicBlock) int {
	n := -1
	ii := g.Instrs(b)
	for m := ii.Next(); m != nil; m = ii.Next() {
		n++
	}
	return n
}

// needsExplicitBranch reports whether blk's fall-through successor isn't
// the very next block in scheduled order, requiring an explicit branch
// to preserve control flow.
func needsExplicitBranch(blk *mir.BasicBlock, order []*mir.BasicBlock, i int) bool {
	if blk.FallThrough == mir.NullBlockID || blk.HasSwitch() {
		return false
	}
	if i+1 >= len(order) {
		return true
	}
	return order[i+1].ID() != blk.FallThrough
}
