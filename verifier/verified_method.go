// Package verifier defines the read-only contract the bytecode verifier
// gives the core for one method: a
// devirtualization map, a safe-cast set, and a per-safepoint reference
// map. This package has no parser of its own — it is the shape of the
// data, analogous to verification_results.h/.cc in original_source.
package verifier

import "github.com/dexaot/aotcore/dex"

// DevirtTarget is the concrete method a verifier has proven an
// invoke-virtual/invoke-interface site always resolves to.
type DevirtTarget struct {
	Method      dex.MethodReference
	AccessFlags dex.AccessFlags
}

// VerifiedMethod is the per-method product of verification. The core
// treats it as read-only and may release it early via ClearVerifiedMethod
// once consumed.
type VerifiedMethod interface {
	// SafeCast reports whether the check-cast at dexPC has been proven
	// redundant and may be elided.
	SafeCast(dexPC uint32) bool

	// Devirtualize returns the concrete target for an invoke at dexPC, if
	// the verifier proved one, and whether a target was found.
	Devirtualize(dexPC uint32) (DevirtTarget, bool)

	// ReferenceVRegs returns the bitmap of vregs holding a live reference
	// at dexPC, one bit per vreg. The core's safepoint GC map computation
	// does not call it; it derives liveness from MIR dataflow.
	ReferenceVRegs(dexPC uint32) []bool
}

// Registry resolves a MethodReference to its VerifiedMethod and supports
// the "the core may call ClearVerifiedMethod after consuming it" sentence
// verification.
type Registry interface {
	Lookup(m dex.MethodReference) (VerifiedMethod, bool)
	ClearVerifiedMethod(m dex.MethodReference)
}

// staticVerifiedMethod is a minimal in-memory VerifiedMethod, useful for
// tests and for methods the loader marks as trivially verified.
type staticVerifiedMethod struct {
	safeCasts map[uint32]bool
	devirt    map[uint32]DevirtTarget
	refVregs  map[uint32][]bool
}

// NewStatic builds a VerifiedMethod from explicit maps; nil maps behave
// as empty.
func NewStatic(safeCasts map[uint32]bool, devirt map[uint32]DevirtTarget, refVregs map[uint32][]bool) VerifiedMethod {
	return &staticVerifiedMethod{safeCasts: safeCasts, devirt: devirt, refVregs: refVregs}
}

func (s *staticVerifiedMethod) SafeCast(dexPC uint32) bool { return s.safeCasts[dexPC] }

func (s *staticVerifiedMethod) Devirtualize(dexPC uint32) (DevirtTarget, bool) {
	d, ok := s.devirt[dexPC]
	return d, ok
}

func (s *staticVerifiedMethod) ReferenceVRegs(dexPC uint32) []bool {
	return s.refVregs[dexPC]
}
