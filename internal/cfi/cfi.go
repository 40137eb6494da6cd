// Package cfi builds the per-method DWARF Call Frame Information that
// accompanies a compiled method's code, mirroring the shape ART's
// Mir2Lir::cfi() builder produces: a stream of DW_CFA opcodes advancing a
// location counter across the generated instruction stream and recording
// how the stack pointer and callee-saved registers move relative to the
// method's CFA (canonical frame address) at each point — built alongside
// EmitPrologue/EmitEpilogue rather than derived from the finished code,
// since ART's QuickCFITest drives it the same way: GenEntrySequence and
// GenExitSequence append to the CFI builder exactly where they append to
// the instruction stream, and a final Patch() call fixes up the last
// advance once the method's total code size is known.
package cfi

import "github.com/dexaot/aotcore/internal/leb128"

// DWARF call frame instruction opcodes used here. This is a small subset
// of the full DW_CFA set: ART's own FDEs for quick-compiled methods never
// need more than advance-location, CFA-offset adjustment, per-register
// offset records and their restore counterparts.
const (
	opAdvanceLoc1  = 0x02 // DW_CFA_advance_loc1, 1-byte delta operand
	opAdvanceLoc2  = 0x03 // DW_CFA_advance_loc2, 2-byte delta operand
	opAdvanceLoc4  = 0x04 // DW_CFA_advance_loc4, 4-byte delta operand
	opOffsetExt    = 0x05 // DW_CFA_offset_extended, uleb reg, uleb offset/8
	opDefCFA       = 0x0c // DW_CFA_def_cfa, uleb reg, uleb offset
	opDefCFAOffset = 0x0e // DW_CFA_def_cfa_offset, uleb offset
	opRestoreExt   = 0x06 // DW_CFA_restore_extended, uleb reg
	opNop          = 0x00 // DW_CFA_nop
)

// Builder accumulates DW_CFA opcodes describing one method's frame
// unwind info as its prologue, body and epilogue are emitted.
type Builder struct {
	buf        []byte
	lastPC     int
	cfaOffset  int
	spilledRow []int // registers with an active DW_CFA_offset_extended, in emission order
}

// NewBuilder returns an empty CFI instruction stream builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AdvancePC records that the location counter has moved to pc (a native
// code offset in bytes from the method's start), emitting the smallest
// DW_CFA_advance_loc* form the delta fits in. A zero or negative delta
// is a no-op: several LIR nodes at the same native offset (labels,
// safepoints) never need their own advance.
func (b *Builder) AdvancePC(pc int) {
	delta := pc - b.lastPC
	if delta <= 0 {
		return
	}
	switch {
	case delta < 1<<8:
		b.buf = append(b.buf, opAdvanceLoc1, byte(delta))
	case delta < 1<<16:
		b.buf = append(b.buf, opAdvanceLoc2, byte(delta), byte(delta>>8))
	default:
		b.buf = append(b.buf, opAdvanceLoc4,
			byte(delta), byte(delta>>8), byte(delta>>16), byte(delta>>24))
	}
	b.lastPC = pc
}

// DefCFA records the initial canonical-frame-address rule: CFA = reg + offset.
func (b *Builder) DefCFA(reg, offset int) {
	b.buf = append(b.buf, opDefCFA)
	b.buf = leb128.AppendUleb128(b.buf, uint64(reg))
	b.buf = leb128.AppendUleb128(b.buf, uint64(offset))
	b.cfaOffset = offset
}

// AdjustCFAOffset records that the CFA's offset from its defining
// register has changed to newOffset, as happens when EmitPrologue grows
// the stack by frameSize and EmitEpilogue shrinks it back.
func (b *Builder) AdjustCFAOffset(newOffset int) {
	if newOffset == b.cfaOffset {
		return
	}
	b.buf = append(b.buf, opDefCFAOffset)
	b.buf = leb128.AppendUleb128(b.buf, uint64(newOffset))
	b.cfaOffset = newOffset
}

// RegisterSpilledAt records that reg's previous value was saved at
// cfaRelOffset bytes from the CFA (a negative number of bytes below it,
// per DWARF convention, passed here as its absolute magnitude divided by
// the architecture's data alignment factor of 8 — callers pass the same
// byte offset EmitPrologue used to place the spill).
func (b *Builder) RegisterSpilledAt(reg, byteOffsetFromCFA int) {
	b.buf = append(b.buf, opOffsetExt)
	b.buf = leb128.AppendUleb128(b.buf, uint64(reg))
	b.buf = leb128.AppendUleb128(b.buf, uint64(byteOffsetFromCFA/8))
	b.spilledRow = append(b.spilledRow, reg)
}

// RestoreRegister records that reg's prologue-time spill is no longer in
// effect, as EmitEpilogue pops it back into place.
func (b *Builder) RestoreRegister(reg int) {
	b.buf = append(b.buf, opRestoreExt)
	b.buf = leb128.AppendUleb128(b.buf, uint64(reg))
	for i, r := range b.spilledRow {
		if r == reg {
			b.spilledRow = append(b.spilledRow[:i], b.spilledRow[i+1:]...)
			break
		}
	}
}

// GetCurrentPC returns the native offset the builder has advanced to so
// far, for callers asserting their CFI tracks their code buffer 1:1.
func (b *Builder) GetCurrentPC() int {
	return b.lastPC
}

// Patch finalizes the instruction stream: advances the location counter
// to finalPC (the method's total code size) if it hasn't reached there
// already, pads the stream to a 4-byte boundary with DW_CFA_nop as the
// DWARF format requires, and returns the finished byte slice. Mirrors
// ART's cfi().Patch(code_size) call made once AssembleLIR has produced
// the method's final code_buffer_.
func (b *Builder) Patch(finalPC int) []byte {
	b.AdvancePC(finalPC)
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, opNop)
	}
	return b.buf
}
