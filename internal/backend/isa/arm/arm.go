// Package arm is the ARMv7 (Thumb2) internal/backend.Machine
// implementation: a lighter-depth sibling of isa/arm64, grounded on the
// same AAPCS-family register/argument conventions scaled down to a
// 32-bit, 16-register file. ART's quick compiler historically targeted
// this ISA before AArch64 existed, which is why it still appears
// alongside arm64 as one of the backend's per-ISA targets.
package arm

import (
	"encoding/binary"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/mir"
)

const (
	coreRegCount = 13 // r0..r12; r13=sp, r14=lr, r15=pc reserved
	fpRegCount   = 32 // s0..s31 (VFP single precision)

	hiddenArgRegIndex = 12 // r12 (ip), ART's ARMv7 hidden-arg convention
)

var (
	argRegsCore    = []int{0, 1, 2, 3}
	argRegsFP      = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	callerSaveCore = []int{0, 1, 2, 3, 12}
	callerSaveFP   = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
)

type kind uint8

const (
	kindNop kind = iota
	kindMovReg
	kindMovImm
	kindALU
	kindLoad
	kindStore
	kindCall
	kindRet
	kindStackAdj
	kindBranch16 // Thumb2 short conditional/unconditional branch, +-2KB
	kindBranch32 // Thumb2 wide branch, enlarged form
)

type payload struct {
	k      kind
	op     mir.Opcode
	rd, rn regalloc.VReg
	imm    int64
	hasRd  bool
}

const branch16RangeBytes = 1 << 11 // Thumb2 16-bit B: 11-bit signed halfword offset, +/-2 KiB

// Machine implements backend.Machine for ARMv7/Thumb2.
type Machine struct{}

func New() *Machine { return &Machine{} }

func (m *Machine) Name() string          { return "arm" }
func (m *Machine) CoreRegCount() int     { return coreRegCount }
func (m *Machine) FPRegCount() int       { return fpRegCount }
func (m *Machine) CallerSaveCore() []int { return callerSaveCore }
func (m *Machine) CallerSaveFP() []int   { return callerSaveFP }
func (m *Machine) ArgRegsCore() []int    { return argRegsCore }
func (m *Machine) ArgRegsFP() []int      { return argRegsFP }
func (m *Machine) HiddenArgReg() int     { return hiddenArgRegIndex }

// UnsupportedOpcode rejects every fill-array-data instruction, whatever
// its element width, since this simplified Thumb2 backend doesn't lower
// it; the filter's per-ISA hard filter gate consults this.
func (m *Machine) UnsupportedOpcode(op mir.Opcode) bool {
	return op == mir.OpFillArrayData
}

func (m *Machine) SupportedShortyChars() string { return "" }

func (m *Machine) EmitPrologue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	g.Append(backend.LIROpReal, payload{k: kindStore}) // push {r4-r11, lr}
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: -int64(frameSize)})
	}
}

func (m *Machine) EmitEpilogue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: int64(frameSize)})
	}
	g.Append(backend.LIROpReal, payload{k: kindLoad}) // pop {r4-r11, pc}
	g.Append(backend.LIROpReal, payload{k: kindRet})
}

func (m *Machine) LowerMIR(g *backend.Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, in *mir.Instruction) {
	switch {
	case in.Opcode.IsMath():
		loc := backend.RegLocation{SRegLow: firstOrZero(in.SSA.Uses), Location: backend.LocationDalvik}
		rn := backend.LoadValue(a, pm, loc)
		g.Append(backend.LIROpReal, payload{k: kindALU, op: in.Opcode, rn: rn.Reg})
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

func firstOrZero(s []int32) int32 {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

func (m *Machine) EmitUnconditionalBranch(g *backend.Graph, target backend.LIRID) *backend.LIR {
	l := g.Append(backend.LIROpUnconditionalBranch, payload{k: kindBranch16})
	l.Target = target
	return l
}

func (m *Machine) Encode(g *backend.Graph, l *backend.LIR, nativeOffset int, commit bool) (backend.EncodedInstr, bool) {
	p, _ := l.Payload.(payload)

	if l.Op == backend.LIROpUnconditionalBranch || p.k == kindBranch16 || p.k == kindBranch32 {
		length := 2
		if p.k == kindBranch32 {
			length = 4
		}
		disp := m.targetOffset(g, l) - nativeOffset
		if p.k != kindBranch32 && (disp < -branch16RangeBytes || disp > branch16RangeBytes) {
			return backend.EncodedInstr{}, false
		}
		if !commit {
			return backend.EncodedInstr{Length: length}, true
		}
		b := make([]byte, length)
		binary.LittleEndian.PutUint16(b[:2], uint16(disp))
		return backend.EncodedInstr{Length: length, Bytes: b}, true
	}

	if !commit {
		return backend.EncodedInstr{Length: 2}, true
	}
	return backend.EncodedInstr{Length: 2, Bytes: []byte{byte(p.k), byte(p.imm)}}, true
}

func (m *Machine) targetOffset(g *backend.Graph, l *backend.LIR) int {
	if l.Target == backend.InvalidLIRID {
		return l.NativeOffset
	}
	return g.Get(l.Target).NativeOffset
}

// EnlargeBranch widens a too-short Thumb2 16-bit branch to its 32-bit
// wide encoding.
func (m *Machine) EnlargeBranch(l *backend.LIR) {
	p, _ := l.Payload.(payload)
	p.k = kindBranch32
	l.Payload = p
}
