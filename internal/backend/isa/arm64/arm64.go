// Package arm64 is the AArch64 internal.backend.Machine implementation
// . Register
// naming and the caller-saved/argument-register partition follow the
// AAPCS64 convention wazero's own arm64 backend encodes in its reg
// tables; the branch-overflow-enlarge sequence (direct PC-relative
// branch widened to a movz/movk/br indirect sequence once the target
// moves out of range) mirrors the same idea wazero's
// machine_relocation.go handles for its own (much larger) B/BL range.
package arm64

import (
	"encoding/binary"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/mir"
)

// Register file sizes. x29 (frame pointer) and x30 (link register) are
// reserved by the prologue/epilogue and excluded from the allocatable
// core pool; sp is not a GPR index at all.
const (
	coreRegCount = 29 // x0..x28
	fpRegCount   = 32 // v0..v31

	hiddenArgRegIndex = 12 // x12, free in AAPCS64's temp set, unused by args
)

var (
	argRegsCore    = []int{0, 1, 2, 3, 4, 5, 6, 7}
	argRegsFP      = []int{0, 1, 2, 3, 4, 5, 6, 7}
	callerSaveCore = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17}
	callerSaveFP   = []int{0, 1, 2, 3, 4, 5, 6, 7, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31}
)

// kind tags the opaque LIR.Payload this package attaches to every real
// instruction (generic internal/backend code never inspects it).
type kind uint8

const (
	kindNop kind = iota
	kindMovReg
	kindMovImm
	kindALU
	kindLoad
	kindStore
	kindCmp
	kindCondBranch
	kindUncondBranch
	kindUncondBranchLong // enlarged form of kindUncondBranch
	kindCall
	kindRet
	kindStackAdj // sp += imm, imm may be negative
	kindPushPair
	kindPopPair
)

type payload struct {
	k      kind
	op     mir.Opcode // originating MIR opcode, for kindALU/kindCmp
	rd, rn regalloc.VReg
	imm    int64
	hasRd  bool
	hasRn  bool
}

// directBranchWords is the simplified encodable word-offset range this
// package models for a single 26-bit-immediate B instruction before
// EnlargeBranch must widen it; real AArch64 hardware allows +-128MB, but
// picking a far smaller window here keeps the enlarge path exercised by
// realistically sized test methods instead of never firing.
const directBranchWords = 1 << 14

// Machine implements backend.Machine for AArch64.
type Machine struct{}

func New() *Machine { return &Machine{} }

func (m *Machine) Name() string          { return "arm64" }
func (m *Machine) CoreRegCount() int     { return coreRegCount }
func (m *Machine) FPRegCount() int       { return fpRegCount }
func (m *Machine) CallerSaveCore() []int { return callerSaveCore }
func (m *Machine) CallerSaveFP() []int   { return callerSaveFP }
func (m *Machine) ArgRegsCore() []int    { return argRegsCore }
func (m *Machine) ArgRegsFP() []int      { return argRegsFP }
func (m *Machine) HiddenArgReg() int     { return hiddenArgRegIndex }

// UnsupportedOpcode implements filter.ISASupport: arm64 has no opcode it
// must reject outright (unlike, say, a 32-bit-only target rejecting
// 64-bit float ops), so the hard filter's per-ISA gate is always open
// here.
func (m *Machine) UnsupportedOpcode(mir.Opcode) bool { return false }

// SupportedShortyChars implements filter.ISASupport: arm64 supports
// every shorty character this frontend produces, signalled by the
// convention of an empty string ("nullptr means all supported").
func (m *Machine) SupportedShortyChars() string { return "" }

// EmitPrologue appends the AAPCS64 frame setup: push {fp,lr}, move
// sp->fp, reserve frameSize bytes, and spill any callee-saved registers
// the allocator's promotion decisions clobbered.
func (m *Machine) EmitPrologue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	g.Append(backend.LIROpReal, payload{k: kindPushPair, imm: int64(frameSize)})
	for i := 0; i < coreRegCount; i++ {
		if coreSpillMask&(1<<uint(i)) != 0 {
			g.Append(backend.LIROpReal, payload{k: kindStore, rd: regalloc.Pack(regalloc.ClassCore, i), hasRd: true})
		}
	}
	for i := 0; i < fpRegCount; i++ {
		if fpSpillMask&(1<<uint(i)) != 0 {
			g.Append(backend.LIROpReal, payload{k: kindStore, rd: regalloc.Pack(regalloc.ClassFP, i), hasRd: true})
		}
	}
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: -int64(frameSize)})
	}
}

// EmitEpilogue mirrors EmitPrologue in reverse: restore spilled
// callee-saves, deallocate the frame, pop {fp,lr}, return.
func (m *Machine) EmitEpilogue(g *backend.Graph, frameSize int, coreSpillMask, fpSpillMask uint32) {
	if frameSize > 0 {
		g.Append(backend.LIROpReal, payload{k: kindStackAdj, imm: int64(frameSize)})
	}
	for i := fpRegCount - 1; i >= 0; i-- {
		if fpSpillMask&(1<<uint(i)) != 0 {
			g.Append(backend.LIROpReal, payload{k: kindLoad, rd: regalloc.Pack(regalloc.ClassFP, i), hasRd: true})
		}
	}
	for i := coreRegCount - 1; i >= 0; i-- {
		if coreSpillMask&(1<<uint(i)) != 0 {
			g.Append(backend.LIROpReal, payload{k: kindLoad, rd: regalloc.Pack(regalloc.ClassCore, i), hasRd: true})
		}
	}
	g.Append(backend.LIROpReal, payload{k: kindPopPair, imm: int64(frameSize)})
	g.Append(backend.LIROpReal, payload{k: kindRet})
}

// LowerMIR dispatches one MIR instruction into its AArch64 LIR form
// .
func (m *Machine) LowerMIR(g *backend.Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, in *mir.Instruction) {
	switch {
	case in.Opcode.IsMath():
		m.lowerALU(g, a, pm, in)
	case in.Opcode == mir.OpMove || in.Opcode == mir.OpMoveWide || in.Opcode == mir.OpMoveObject:
		m.lowerMove(g, a, pm, in)
	case in.Opcode == mir.OpConst || in.Opcode == mir.OpConstWide:
		m.lowerConst(g, a, pm, in)
	case in.Opcode.IsBranch():
		g.Append(backend.LIROpReal, payload{k: kindCondBranch, op: in.Opcode})
	case in.Opcode == mir.OpGoto:
		g.Append(backend.LIROpUnconditionalBranch, payload{k: kindUncondBranch})
	case in.Opcode.IsInvoke():
		g.Append(backend.LIROpReal, payload{k: kindCall})
	case in.Opcode == mir.OpReturnVoid:
		// epilogue emission handles the actual ret; nothing to lower here.
	default:
		g.Append(backend.LIROpReal, payload{k: kindNop, op: in.Opcode})
	}
}

func (m *Machine) lowerALU(g *backend.Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, in *mir.Instruction) {
	class := regalloc.ClassCore
	loc := backend.RegLocation{SRegLow: firstOrZero(in.SSA.Uses), Location: backend.LocationDalvik}
	rn := backend.LoadValue(a, pm, loc)
	var rd regalloc.VReg
	if len(in.SSA.Defs) > 0 {
		if v, ok := pm.Lookup(in.SSA.Defs[0]); ok {
			rd = v
		} else if v, ok := a.AllocTemp(class); ok {
			rd = v
		}
	}
	g.Append(backend.LIROpReal, payload{k: kindALU, op: in.Opcode, rd: rd, rn: rn.Reg, hasRd: true, hasRn: true})
}

func (m *Machine) lowerMove(g *backend.Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, in *mir.Instruction) {
	loc := backend.RegLocation{SRegLow: firstOrZero(in.SSA.Uses), Location: backend.LocationDalvik}
	src := backend.LoadValue(a, pm, loc)
	g.Append(backend.LIROpReal, payload{k: kindMovReg, rn: src.Reg, hasRn: true})
}

func (m *Machine) lowerConst(g *backend.Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, in *mir.Instruction) {
	var rd regalloc.VReg
	if len(in.SSA.Defs) > 0 {
		if v, ok := pm.Lookup(in.SSA.Defs[0]); ok {
			rd = v
		} else if v, ok := a.AllocTemp(regalloc.ClassCore); ok {
			rd = v
		}
	}
	g.Append(backend.LIROpReal, payload{k: kindMovImm, rd: rd, imm: in.Operands[0], hasRd: true})
}

func firstOrZero(s []int32) int32 {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// EmitUnconditionalBranch implements backend.Machine's fall-through
// preservation hook.
func (m *Machine) EmitUnconditionalBranch(g *backend.Graph, target backend.LIRID) *backend.LIR {
	l := g.Append(backend.LIROpUnconditionalBranch, payload{k: kindUncondBranch})
	l.Target = target
	return l
}

// Encode computes or emits one LIR's AArch64 bytes. Every real AArch64
// instruction this package emits is a fixed 4 bytes, except the enlarged
// long-branch sequence (movz+movk+br, 12 bytes) EnlargeBranch installs
// once a direct branch's target has drifted out of directBranchWords.
func (m *Machine) Encode(g *backend.Graph, l *backend.LIR, nativeOffset int, commit bool) (backend.EncodedInstr, bool) {
	p, _ := l.Payload.(payload)
	if p.k == kindUncondBranchLong {
		if !commit {
			return backend.EncodedInstr{Length: 12}, true
		}
		return backend.EncodedInstr{Length: 12, Bytes: encodeLongBranch(m.targetOffset(g, l))}, true
	}

	if l.Op == backend.LIROpUnconditionalBranch || p.k == kindCondBranch {
		disp := m.targetOffset(g, l) - nativeOffset
		words := disp / 4
		if words < -directBranchWords || words > directBranchWords {
			return backend.EncodedInstr{}, false
		}
		if !commit {
			return backend.EncodedInstr{Length: 4}, true
		}
		return backend.EncodedInstr{Length: 4, Bytes: encodeWord(uint32(words) & 0x03ffffff)}, true
	}

	if !commit {
		return backend.EncodedInstr{Length: 4}, true
	}
	return backend.EncodedInstr{Length: 4, Bytes: encodeWord(uint32(p.k)<<24 | uint32(p.imm)&0x00ffffff)}, true
}

func (m *Machine) targetOffset(g *backend.Graph, l *backend.LIR) int {
	if l.Target == backend.InvalidLIRID {
		return l.NativeOffset
	}
	return g.Get(l.Target).NativeOffset
}

// EnlargeBranch rewrites a too-short direct branch into the 12-byte
// movz/movk/br indirect sequence.
func (m *Machine) EnlargeBranch(l *backend.LIR) {
	p, _ := l.Payload.(payload)
	p.k = kindUncondBranchLong
	l.Payload = p
}

func encodeWord(w uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, w)
	return b
}

func encodeLongBranch(targetOffset int) []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:4], 0xd2800000|uint32(targetOffset&0xffff)<<5)
	binary.LittleEndian.PutUint32(b[4:8], 0xf2a00000|uint32((targetOffset>>16)&0xffff)<<5)
	binary.LittleEndian.PutUint32(b[8:12], 0xd61f0000)
	return b
}
