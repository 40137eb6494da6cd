// Package x86 is the 32-bit i386 internal/backend.Machine
// implementation: the lighter, historical sibling of isa/amd64, kept to
// the same variable-length-encoding idiom with half the register file
// (no r8-r15, no REX prefixes) and a reduced arg-register convention
// (cdecl/ART's x86 quick ABI passes the first argument in a register
// and spills the rest, unlike amd64's six-register window).
package x86

import (
	"encoding/binary"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/mir"
)

const (
	coreRegCount = 6 // eax,ebx,ecx,edx,esi,edi; esp/ebp reserved
	fpRegCount   = 8 // xmm0..xmm7

	hiddenArgRegIndex = 2 // ecx, ART's x86 hidden-arg register for IMT conflict stubs
)

var (
	argRegsCore    = []int{0} // only eax carries an argument in registers; the rest are stack
	argRegsFP      = []int{0, 1, 2, 3, 4, 5, 6, 7}
	callerSaveCore = []int{0, 1, 2}
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
	kindJmpShort
	kindJmpNear
)

type payload struct {
	k   kind
	op  mir.Opcode
	imm int64
}

// Machine implements backend.Machine for i386.
type Machine struct{}

func New() *Machine { return &Machine{} }

func (m *Machine) Name() string          { return "x86" }
func (m *Machine) CoreRegCount() int     { return coreRegCount }
func (m *Machine) FPRegCount() int       { return fpRegCount }
func (m *Machine) CallerSaveCore() []int { return callerSaveCore }
func (m *Machine) CallerSaveFP() []int   { return callerSaveFP }
func (m *Machine) ArgRegsCore() []int    { return argRegsCore }
func (m *Machine) ArgRegsFP() []int      { return argRegsFP }
func (m *Machine) HiddenArgReg() int     { return hiddenArgRegIndex }

// UnsupportedOpcode rejects no opcode: this backend reports every opcode
// as supported.
func (m *Machine) UnsupportedOpcode(op mir.Opcode) bool { return false }
func (m *Machine) SupportedShortyChars() string         { return "" }

func (m *Machine) EmitPrologue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	g.Append(backend.LIROpReal, payload{k: kindMovReg}) // push ebp; mov ebp, esp
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: -int64(frameSize)})
	}
}

func (m *Machine) EmitEpilogue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: int64(frameSize)})
	}
	g.Append(backend.LIROpReal, payload{k: kindMovReg}) // pop ebp
	g.Append(backend.LIROpReal, payload{k: kindRet})
}

func (m *Machine) LowerMIR(g *backend.Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, in *mir.Instruction) {
	switch {
	case in.Opcode.IsMath():
		g.Append(backend.LIROpReal, payload{k: kindALU, op: in.Opcode})
	case in.Opcode == mir.OpConst || in.Opcode == mir.OpConstWide:
		g.Append(backend.LIROpReal, payload{k: kindMovImm, imm: in.Operands[0]})
	case in.Opcode.IsBranch():
		g.Append(backend.LIROpReal, payload{k: kindJmpShort, op: in.Opcode})
	case in.Opcode == mir.OpGoto:
		g.Append(backend.LIROpUnconditionalBranch, payload{k: kindJmpShort})
	case in.Opcode.IsInvoke():
		g.Append(backend.LIROpReal, payload{k: kindCall})
	default:
		g.Append(backend.LIROpReal, payload{k: kindNop, op: in.Opcode})
	}
}

func (m *Machine) EmitUnconditionalBranch(g *backend.Graph, target backend.LIRID) *backend.LIR {
	l := g.Append(backend.LIROpUnconditionalBranch, payload{k: kindJmpShort})
	l.Target = target
	return l
}

func (m *Machine) Encode(g *backend.Graph, l *backend.LIR, nativeOffset int, commit bool) (backend.EncodedInstr, bool) {
	p, _ := l.Payload.(payload)

	if l.Op == backend.LIROpUnconditionalBranch || p.k == kindJmpShort || p.k == kindJmpNear {
		length := 2
		if p.k == kindJmpNear {
			length = 5
		}
		disp := m.targetOffset(g, l) - (nativeOffset + length)
		if p.k != kindJmpNear && (disp < -128 || disp > 127) {
			return backend.EncodedInstr{}, false
		}
		if !commit {
			return backend.EncodedInstr{Length: length}, true
		}
		if length == 2 {
			return backend.EncodedInstr{Length: 2, Bytes: []byte{0xeb, byte(int8(disp))}}, true
		}
		b := make([]byte, 5)
		b[0] = 0xe9
		binary.LittleEndian.PutUint32(b[1:], uint32(int32(disp)))
		return backend.EncodedInstr{Length: 5, Bytes: b}, true
	}

	if !commit {
		return backend.EncodedInstr{Length: 3}, true
	}
	return backend.EncodedInstr{Length: 3, Bytes: []byte{byte(p.k), byte(p.imm), byte(p.imm >> 8)}}, true
}

func (m *Machine) targetOffset(g *backend.Graph, l *backend.LIR) int {
	if l.Target == backend.InvalidLIRID {
		return l.NativeOffset
	}
	return g.Get(l.Target).NativeOffset
}

func (m *Machine) EnlargeBranch(l *backend.LIR) {
	p, _ := l.Payload.(payload)
	p.k = kindJmpNear
	l.Payload = p
}
