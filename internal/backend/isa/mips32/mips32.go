// Package mips32 is the lightest-depth internal/backend.Machine
// implementation, for MIPS32's fixed-32-bit-instruction, delay-slot
// ISA ART's quick compiler also historically targeted. Like arm64, every
// real instruction is 4 bytes; unlike arm64, branches have a 16-bit
// signed word-count immediate the branch-overflow retry here widens
// to an absolute jump-register sequence once it overflows.
package mips32

import (
	"encoding/binary"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/mir"
)

const (
	coreRegCount = 16 // a conservative subset of $t0-$t9/$s0-$s7, excluding $zero/$sp/$fp/$ra/$gp
	fpRegCount   = 16 // $f0..$f15 (o32 FPU pairs)

	hiddenArgRegIndex = 9 // $t9, the o32 PIC call-target/hidden-arg convention register
)

var (
	argRegsCore    = []int{0, 1, 2, 3} // $a0-$a3
	argRegsFP      = []int{0, 1}
	callerSaveCore = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	callerSaveFP   = []int{0, 1, 2, 3, 4, 5, 6, 7}
)

type kind uint8

const (
	kindNop kind = iota
	kindMovReg
	kindMovImm
	kindALU
	kindCall
	kindRet
	kindStackAdj
	kindBranch16
	kindJumpAbsolute // enlarged form: load full target into a temp + jr
)

const branch16WordRange = 1 << 15

type payload struct {
	k   kind
	op  mir.Opcode
	imm int64
}

// Machine implements backend.Machine for MIPS32 (o32 ABI).
type Machine struct{}

func New() *Machine { return &Machine{} }

func (m *Machine) Name() string          { return "mips32" }
func (m *Machine) CoreRegCount() int     { return coreRegCount }
func (m *Machine) FPRegCount() int       { return fpRegCount }
func (m *Machine) CallerSaveCore() []int { return callerSaveCore }
func (m *Machine) CallerSaveFP() []int   { return callerSaveFP }
func (m *Machine) ArgRegsCore() []int    { return argRegsCore }
func (m *Machine) ArgRegsFP() []int      { return argRegsFP }
func (m *Machine) HiddenArgReg() int     { return hiddenArgRegIndex }

// UnsupportedOpcode rejects monitor ops, which this reference backend
// doesn't lower to MIPS32's LL/SC sequence.
func (m *Machine) UnsupportedOpcode(op mir.Opcode) bool {
	return op == mir.OpMonitorEnter || op == mir.OpMonitorExit
}

func (m *Machine) SupportedShortyChars() string { return "" }

func (m *Machine) EmitPrologue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: -int64(frameSize)})
	}
	g.Append(backend.LIROpReal, payload{k: kindMovReg}) // sw $ra, frameSize-4($sp)
}

func (m *Machine) EmitEpilogue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	g.Append(backend.LIROpReal, payload{k: kindMovReg}) // lw $ra, frameSize-4($sp)
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: int64(frameSize)})
	}
	g.Append(backend.LIROpReal, payload{k: kindRet}) // jr $ra (branch-delay slot implicit)
}

func (m *Machine) LowerMIR(g *backend.Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, in *mir.Instruction) {
	switch {
	case in.Opcode.IsMath():
		g.Append(backend.LIROpReal, payload{k: kindALU, op: in.Opcode})
	case in.Opcode == mir.OpConst || in.Opcode == mir.OpConstWide:
		g.Append(backend.LIROpReal, payload{k: kindMovImm, imm: in.Operands[0]})
	case in.Opcode.IsBranch():
		g.Append(backend.LIROpReal, payload{k: kindBranch16, op: in.Opcode})
	case in.Opcode == mir.OpGoto:
		g.Append(backend.LIROpUnconditionalBranch, payload{k: kindBranch16})
	case in.Opcode.IsInvoke():
		g.Append(backend.LIROpReal, payload{k: kindCall})
	default:
		g.Append(backend.LIROpReal, payload{k: kindNop, op: in.Opcode})
	}
}

func (m *Machine) EmitUnconditionalBranch(g *backend.Graph, target backend.LIRID) *backend.LIR {
	l := g.Append(backend.LIROpUnconditionalBranch, payload{k: kindBranch16})
	l.Target = target
	return l
}

func (m *Machine) Encode(g *backend.Graph, l *backend.LIR, nativeOffset int, commit bool) (backend.EncodedInstr, bool) {
	p, _ := l.Payload.(payload)

	if l.Op == backend.LIROpUnconditionalBranch || p.k == kindBranch16 || p.k == kindJumpAbsolute {
		if p.k == kindJumpAbsolute {
			if !commit {
				return backend.EncodedInstr{Length: 12}, true // lui+ori+jr, a representative fixed form
			}
			b := make([]byte, 12)
			binary.LittleEndian.PutUint32(b[8:], 0x00000008) // jr placeholder opcode
			return backend.EncodedInstr{Length: 12, Bytes: b}, true
		}
		disp := (m.targetOffset(g, l) - (nativeOffset + 4)) / 4
		if disp < -branch16WordRange || disp > branch16WordRange {
			return backend.EncodedInstr{}, false
		}
		if !commit {
			return backend.EncodedInstr{Length: 4}, true
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(disp)&0xffff)
		return backend.EncodedInstr{Length: 4, Bytes: b}, true
	}

	if !commit {
		return backend.EncodedInstr{Length: 4}, true
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(p.k)<<26|uint32(p.imm)&0x3ffffff)
	return backend.EncodedInstr{Length: 4, Bytes: b}, true
}

func (m *Machine) targetOffset(g *backend.Graph, l *backend.LIR) int {
	if l.Target == backend.InvalidLIRID {
		return l.NativeOffset
	}
	return g.Get(l.Target).NativeOffset
}

// EnlargeBranch widens a too-short PC-relative branch to an absolute
// load-and-jump-register sequence.
func (m *Machine) EnlargeBranch(l *backend.LIR) {
	p, _ := l.Payload.(payload)
	p.k = kindJumpAbsolute
	l.Payload = p
}
