// Package regalloc implements a simple local allocator: a pool of
// core-register and fp-register RegInfo records tracking
// {is_temp, in_use, s_reg, live, wide}, with AllocTemp/FreeTemp,
// ClobberCallerSave, and LockCallTemps/FreeCallTemps. This is
// deliberately the much simpler "local" allocator this core
// describes, not the linear-scan/graph-coloring allocator wazero's
// own backend/regalloc implements over SSA live ranges — that allocator
// assumes SSA value numbering this project's MIR doesn't construct (see
// internal/mir package doc). The VReg bit-packing idea (pack a register
// class and identity into one machine word) is grounded on the
// teacher's regalloc/reg.go VReg, simplified to the one axis this
// allocator actually needs: class + index.
package regalloc

import "fmt"

// Class distinguishes the two independent register files a target
// exposes.
type Class uint8

const (
	ClassCore Class = iota
	ClassFP
	numClasses
)

// VReg packs a Class into the high byte and a small index into the low
// bytes, so a single uint32 can be stored in MIR/LIR operands without an
// extra indirection, mirroring (in miniature) wazero's
// class-in-high-bits VReg packing.
type VReg uint32

const classShift = 24

// Pack builds a VReg from a class and allocator-local index.
func Pack(c Class, idx int) VReg {
	if idx < 0 || idx >= 1<<classShift {
		panic(fmt.Sprintf("regalloc: index %d out of range", idx))
	}
	return VReg(uint32(c)<<classShift | uint32(idx))
}

func (v VReg) Class() Class { return Class(v >> classShift) }
func (v VReg) Index() int   { return int(v & (1<<classShift - 1)) }

// RegInfo is one physical register's allocation state.
type RegInfo struct {
	IsTemp bool
	InUse  bool
	// SReg is the Dalvik vreg number currently resident in this physical
	// register, or -1 if none.
	SReg int32
	Live bool
	Wide bool
	// CallerSave marks a register ClobberCallerSave invalidates at call
	// boundaries.
	CallerSave bool
	// Reserved marks a register LockCallTemps may reserve for argument
	// marshalling; such registers are excluded from ordinary AllocTemp.
	Reserved bool
}

// Allocator is the per-CompilationUnit register pool. One
// Allocator is created per method compilation and discarded with the
// rest of the CompilationUnit's arena-backed state.
type Allocator struct {
	regs [numClasses][]RegInfo
}

// NewAllocator builds an Allocator with coreCount core registers and
// fpCount fp registers, each starting free, matching whatever physical
// register file the target Machine reports.
func NewAllocator(coreCount, fpCount int) *Allocator {
	a := &Allocator{}
	a.regs[ClassCore] = make([]RegInfo, coreCount)
	a.regs[ClassFP] = make([]RegInfo, fpCount)
	for i := range a.regs[ClassCore] {
		a.regs[ClassCore][i].SReg = -1
	}
	for i := range a.regs[ClassFP] {
		a.regs[ClassFP][i].SReg = -1
	}
	return a
}

// MarkCallerSave flags which registers of class c are caller-saved,
// consulted by ClobberCallerSave.
func (a *Allocator) MarkCallerSave(c Class, indices []int) {
	for _, i := range indices {
		a.regs[c][i].CallerSave = true
	}
}

// AllocTemp hands out a free, non-reserved register of class c.
func (a *Allocator) AllocTemp(c Class) (VReg, bool) {
	return a.allocTemp(c, false)
}

// AllocTempWide is AllocTemp for a value that occupies a register pair
// on targets where wide values don't fit one physical register; this
// allocator tracks that fact on the RegInfo.
func (a *Allocator) AllocTempWide(c Class) (VReg, bool) {
	return a.allocTemp(c, true)
}

// AllocTempRef is AllocTemp for a reference-typed value; reference-ness
// itself doesn't change which physical register is chosen (it only
// matters for the GC map), so this is an alias kept distinct for call-
// site clarity, matching the conventional naming of all three entry points
// side by side.
func (a *Allocator) AllocTempRef(c Class) (VReg, bool) {
	return a.allocTemp(c, false)
}

func (a *Allocator) allocTemp(c Class, wide bool) (VReg, bool) {
	regs := a.regs[c]
	for i := range regs {
		if regs[i].InUse || regs[i].Reserved {
			continue
		}
		regs[i].InUse = true
		regs[i].IsTemp = true
		regs[i].Live = true
		regs[i].Wide = wide
		return Pack(c, i), true
	}
	return 0, false
}

// FreeTemp releases a register allocated by one of the AllocTemp family.
func (a *Allocator) FreeTemp(v VReg) {
	r := &a.regs[v.Class()][v.Index()]
	*r = RegInfo{SReg: -1, CallerSave: r.CallerSave, Reserved: r.Reserved}
}

// ClobberCallerSave invalidates every caller-saved register's residency
// at a call boundary.
func (a *Allocator) ClobberCallerSave() {
	for c := Class(0); c < numClasses; c++ {
		for i := range a.regs[c] {
			if a.regs[c][i].CallerSave {
				a.regs[c][i] = RegInfo{SReg: -1, CallerSave: true}
			}
		}
	}
}

// LockCallTemps reserves the given argument-passing registers so
// ordinary AllocTemp calls skip them while an invoke sequence is being
// built.
func (a *Allocator) LockCallTemps(c Class, indices []int) {
	for _, i := range indices {
		a.regs[c][i].Reserved = true
	}
}

// FreeCallTemps releases registers reserved by LockCallTemps.
func (a *Allocator) FreeCallTemps(c Class, indices []int) {
	for _, i := range indices {
		a.regs[c][i].Reserved = false
	}
}

// Info returns the current RegInfo for a VReg, for callers (LoadValue/
// StoreValue) that need to inspect residency without mutating it.
func (a *Allocator) Info(v VReg) RegInfo { return a.regs[v.Class()][v.Index()] }
