package backend

import "github.com/dexaot/aotcore/internal/mir"

// Safepoint is one (native_pc, ref-bitmap) pair recorded for the GC map
// .
type Safepoint struct {
	NativePC int
	DexPC    uint32
	RefVregs []bool
}

// SafepointRecorder accumulates safepoints during block scheduling. A
// LIROpSafepointPC marker is appended after every call instruction
// ; once the assembler's first pass has assigned native offsets,
// ResolveOffsets fills in NativePC for each recorded safepoint in the
// same order they were declared, and the packager sorts nothing further
// since safepoints are encountered in emission order, already
// native-pc-ascending.
type SafepointRecorder struct {
	pending    []LIRID
	safepoints []Safepoint
}

// Record notes that a safepoint belongs at lirID once its native offset
// is known, with the reference-liveness bitmap computed from the MIR
// block's dataflow at this point and
// dexPC carried through from the call instruction that generated it, for
// the mapping table's native-PC<->dex-PC correspondence.
func (r *SafepointRecorder) Record(lirID LIRID, dexPC uint32, refVregs []bool) {
	r.pending = append(r.pending, lirID)
	r.safepoints = append(r.safepoints, Safepoint{DexPC: dexPC, RefVregs: append([]bool(nil), refVregs...)})
}

// ResolveOffsets fills in NativePC for every recorded safepoint from the
// LIR graph's assigned NativeOffset fields, called once the assembler's
// assign-offsets pass has completed.
func (r *SafepointRecorder) ResolveOffsets(g *Graph) {
	for i, id := range r.pending {
		r.safepoints[i].NativePC = g.Get(id).NativeOffset
	}
}

// Safepoints returns every recorded safepoint in native-pc order.
func (r *SafepointRecorder) Safepoints() []Safepoint { return r.safepoints }

// LiveRefBitmap replays updateReferenceVRegs across
// one block's MIR up to (and including) the instruction at index
// upToInclusive, merging from the block's DataFlow.LiveRefVregsIn at
// block entry and then replaying each instruction's effect in order.
func LiveRefBitmap(g *mir.Graph, b *mir.BasicBlock, upToInclusive int) []bool {
	var live []bool
	if b.DataFlow != nil {
		live = append([]bool(nil), b.DataFlow.LiveRefVregsIn...)
	}
	ii := g.Instrs(b)
	i := 0
	for m := ii.Next(); m != nil; m = ii.Next() {
		if i > upToInclusive {
			break
		}
		live = updateReferenceVRegs(live, m)
		i++
	}
	return live
}

// updateReferenceVRegs applies one MIR instruction's effect on the
// live-reference bitmap: a def of a non-reference value clears that
// vreg's bit; the builder's earlier register-promotion pass already
// marked which vregs are reference-typed, but at this per-instruction
// granularity this package conservatively only clears (never sets) a
// bit for a def, since proving "this def made the vreg a reference"
// requires the type information only the loader/verifier carries, which
// LiveRefBitmap's caller is expected to fold in via the initial
// DataFlow.LiveRefVregsIn/Out seeded by internal/mir/passop's
// temp-liveness pass.
func updateReferenceVRegs(live []bool, m *mir.Instruction) []bool {
	for _, d := range m.SSA.Defs {
		if d >= 0 && int(d) < len(live) {
			live[d] = false
		}
	}
	return live
}
