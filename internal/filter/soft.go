package filter

import "github.com/dexaot/aotcore/internal/mir"

// Stats is the soft filter's per-method aggregate.
type Stats struct {
	DexInstructions      int
	MathOps              int
	FPOps                int
	ArrayOps             int
	BranchOps            int
	HeavyweightOps       int
	HasSwitch            bool
	HasComputationalLoop bool
	BlockCount           int
}

// MathRatio etc. are the ratios the decision matrix
// consults, each relative to DexInstructions.
func (s Stats) MathRatio() float64        { return ratio(s.MathOps, s.DexInstructions) }
func (s Stats) FPRatio() float64          { return ratio(s.FPOps, s.DexInstructions) }
func (s Stats) ArrayRatio() float64       { return ratio(s.ArrayOps, s.DexInstructions) }
func (s Stats) BranchRatio() float64      { return ratio(s.BranchOps, s.DexInstructions) }
func (s Stats) HeavyweightRatio() float64 { return ratio(s.HeavyweightOps, s.DexInstructions) }

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// isSelfLoop detects the heuristic "computational loop" shape
// without dataflow: a block whose last instruction branches back to
// itself, or whose taken successor's taken/fall-through lands back at
// the block's own id.
func isSelfLoop(g *mir.Graph, b *mir.BasicBlock) bool {
	if b.Taken == b.ID() {
		return true
	}
	taken := g.Block(b.Taken)
	if taken == nil {
		return false
	}
	return taken.Taken == b.ID() || taken.FallThrough == b.ID()
}

// Analyze walks every live block in the graph once and produces the
// aggregate Stats the decision matrix consumes.
func Analyze(g *mir.Graph) Stats {
	var s Stats
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		s.BlockCount++
		scale := 1
		isLoop := isSelfLoop(g, blk)
		if isLoop {
			s.HasComputationalLoop = true
			scale = loopScaleFactor
		}
		if blk.HasSwitch() {
			s.HasSwitch = true
		}

		var dex, math, fp, array, branch, heavy int
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			dex++
			if m.Opcode.IsMath() {
				math++
			}
			if isFloatingPointMath(m) {
				fp++
			}
			if m.Opcode.IsArrayOp() {
				array++
			}
			if m.Opcode.IsBranch() {
				branch++
			}
			if m.Opcode.IsHeavyweight() {
				heavy++
			}
		}
		s.DexInstructions += dex * scale
		s.MathOps += math * scale
		s.FPOps += fp * scale
		s.ArrayOps += array * scale
		s.BranchOps += branch * scale
		s.HeavyweightOps += heavy * scale
	}
	return s
}

// isFloatingPointMath distinguishes a float/double math op from an
// integer one. This representative opcode set carries width/kind in the
// instruction's operand payload rather than as distinct opcodes, so the
// tag is read from Operands[4], the last operand slot, by convention: a
// non-zero value there marks FP.
func isFloatingPointMath(m *mir.Instruction) bool {
	return m.Opcode.IsMath() && m.Operands[4] != 0
}
