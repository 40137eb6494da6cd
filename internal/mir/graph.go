package mir

import "github.com/dexaot/aotcore/internal/arena"

// Graph is the MIR CFG of one method: a pool of BasicBlock and a pool of
// Instruction, both arena-backed. There is exactly one Entry
// and one Exit block.
type Graph struct {
	blocks arena.Pool[BasicBlock]
	instrs arena.Pool[Instruction]

	numBlocks int
	numInstrs int

	EntryID BlockID
	ExitID  BlockID

	// reversePostOrder is populated by Build and consumed by every pass
	// and by the backend's block-scheduling walk.
	reversePostOrder []BlockID

	// CatchEntries maps a dex PC to the block id beginning its handler,
	// recorded while building.
	CatchEntries map[uint32]BlockID

	Fields  FieldLoweringCache
	Methods MethodLoweringCache

	// VregHints is populated by passop's register-promotion-decisions
	// pass: per-Dalvik-vreg use/def counts and type info the backend
	// consults to build its PromotionMap.
	VregHints map[int32]*VregHint
}

// VregHint summarizes one Dalvik vreg's activity across the whole
// method, used by the backend to decide which vregs are worth promoting
// to a physical register for the method's lifetime.
type VregHint struct {
	Defs, Uses int
	Wide       bool
	Ref        bool
}

// NewGraph returns an empty Graph ready for Builder.Build.
func NewGraph() *Graph {
	g := &Graph{
		blocks:       arena.NewPool[BasicBlock](),
		instrs:       arena.NewPool[Instruction](),
		EntryID:      NullBlockID,
		ExitID:       NullBlockID,
		CatchEntries: map[uint32]BlockID{},
	}
	g.Fields = newFieldLoweringCache()
	g.Methods = newMethodLoweringCache()
	g.VregHints = map[int32]*VregHint{}
	return g
}

// Reset discards every block/instruction so the Graph (and its backing
// arena pages) can be reused by the next method compiled on this worker
// .
func (g *Graph) Reset() {
	g.blocks.Reset()
	g.instrs.Reset()
	g.numBlocks = 0
	g.numInstrs = 0
	g.EntryID = NullBlockID
	g.ExitID = NullBlockID
	g.reversePostOrder = g.reversePostOrder[:0]
	for k := range g.CatchEntries {
		delete(g.CatchEntries, k)
	}
	g.Fields.reset()
	g.Methods.reset()
	for k := range g.VregHints {
		delete(g.VregHints, k)
	}
}

// allocBlock allocates a new, zeroed BasicBlock and assigns it the next
// sequential id.
func (g *Graph) allocBlock(typ BlockType) *BasicBlock {
	b := g.blocks.Allocate()
	b.id = BlockID(g.numBlocks)
	b.Type = typ
	b.Taken = NullBlockID
	b.FallThrough = NullBlockID
	b.FirstMIR = InvalidID
	b.LastMIR = InvalidID
	g.numBlocks++
	return b
}

// Block resolves a BlockID back to its BasicBlock.
func (g *Graph) Block(id BlockID) *BasicBlock {
	if id < 0 {
		return nil
	}
	return g.blocks.View(int(id))
}

// NumBlocks is the number of blocks allocated so far, including Dead
// ones (they are never removed from the pool, only marked).
func (g *Graph) NumBlocks() int { return g.numBlocks }

// allocInstr allocates a new, zeroed Instruction and assigns it the next
// sequential id.
func (g *Graph) allocInstr() *Instruction {
	m := g.instrs.Allocate()
	m.id = ID(g.numInstrs)
	m.Next = InvalidID
	m.BB = NullBlockID
	g.numInstrs++
	return m
}

// Instr resolves an ID back to its Instruction.
func (g *Graph) Instr(id ID) *Instruction {
	if id < 0 {
		return nil
	}
	return g.instrs.View(int(id))
}

// NumInstrs is the number of MIR instructions allocated so far.
func (g *Graph) NumInstrs() int { return g.numInstrs }

// AppendInstr links instr to the tail of block's MIR list.
func (g *Graph) AppendInstr(block *BasicBlock, instr *Instruction) {
	instr.BB = block.id
	if block.FirstMIR == InvalidID {
		block.FirstMIR = instr.id
	} else {
		g.Instr(block.LastMIR).Next = instr.id
	}
	block.LastMIR = instr.id
}

// InstrIter walks a block's MIR list in program order.
type InstrIter struct {
	g    *Graph
	next ID
}

func (g *Graph) Instrs(block *BasicBlock) InstrIter {
	return InstrIter{g: g, next: block.FirstMIR}
}

func (it *InstrIter) Next() *Instruction {
	if it.next == InvalidID {
		return nil
	}
	m := it.g.Instr(it.next)
	it.next = m.Next
	return m
}

// RPOIterator walks blocks in the reverse-post-order computed by Build,
// the deterministic order the backend's block scheduling and most passes
// use.
type RPOIterator struct {
	g   *Graph
	pos int
}

func (g *Graph) RPO() RPOIterator { return RPOIterator{g: g} }

func (it *RPOIterator) Next() *BasicBlock {
	for it.pos < len(it.g.reversePostOrder) {
		id := it.g.reversePostOrder[it.pos]
		it.pos++
		b := it.g.Block(id)
		if !b.IsDead() {
			return b
		}
	}
	return nil
}

// AllBlocks walks every allocated block regardless of order or liveness,
// used by passes that need to touch Dead blocks too (e.g. to confirm
// they carry no MIR).
func (g *Graph) AllBlocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, g.numBlocks)
	for i := 0; i < g.numBlocks; i++ {
		out = append(out, g.Block(BlockID(i)))
	}
	return out
}

// ClearVisited resets the single shared visited_flag on every
// block, so a pass can use it as scratch without colliding with another
// pass's walk.
func (g *Graph) ClearVisited() {
	for i := 0; i < g.numBlocks; i++ {
		g.blocks.View(i).SetVisited(false)
	}
}
