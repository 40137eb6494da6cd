package backend

import (
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/filter"
	"github.com/dexaot/aotcore/internal/mir"
)

// EncodedInstr is the assembler-facing result of encoding one real LIR:
// its final byte length (used by AssignOffsets) and, once a second pass
// commits, its bytes.
type EncodedInstr struct {
	Length int
	Bytes  []byte // populated only during the emit pass
}

// Machine is the abstract per-ISA backend interface: "Per-
// ISA concrete implementations... share an abstract interface and a
// large body of target-independent helpers." Every concrete backend
// under internal/backend/isa/* implements this so internal/backend's
// block scheduler, invoke state machines, and assembler never depend on
// a specific target.
type Machine interface {
	filter.ISASupport

	// Name identifies the target, used for diagnostics and the packager's
	// header.
	Name() string

	// CoreRegCount / FPRegCount size the regalloc.Allocator pools.
	CoreRegCount() int
	FPRegCount() int

	// CallerSaveCore / CallerSaveFP list which register indices
	// ClobberCallerSave invalidates at a call boundary.
	CallerSaveCore() []int
	CallerSaveFP() []int

	// ArgRegsCore / ArgRegsFP list the registers LockCallTemps reserves
	// while marshalling an invoke's arguments, in calling-convention
	// order.
	ArgRegsCore() []int
	ArgRegsFP() []int

	// HiddenArgReg is the register the interface-invoke state machine
	// passes the target method_idx in so the IMT conflict trampoline can
	// disambiguate.
	HiddenArgReg() int

	// EmitPrologue / EmitEpilogue append the Entry/Exit block bodies.
	EmitPrologue(g *Graph, frameSize int, coreSpillMask, fpSpillMask uint32)
	EmitEpilogue(g *Graph, frameSize int, coreSpillMask, fpSpillMask uint32)

	// LowerMIR dispatches one MIR instruction to its LIR lowering,
	// appending to g.
	LowerMIR(g *Graph, a *regalloc.Allocator, pm regalloc.PromotionMap, m *mir.Instruction)

	// EmitUnconditionalBranch appends a branch to target, used by block
	// scheduling to preserve fall-through semantics when the natural
	// successor isn't laid out next.
	EmitUnconditionalBranch(g *Graph, target LIRID) *LIR

	// Encode computes the final byte length of one real LIR during the
	// assign-offsets pass, or its bytes during the emit pass (commit
	// true). g is passed so a branch payload can look up its Target's
	// already-assigned NativeOffset. On the emit pass, if the instruction
	// no longer fits the range its operand requires (a branch grew out of
	// range), Encode returns ok=false and the caller restarts with
	// EnlargeBranch first.
	Encode(g *Graph, l *LIR, nativeOffset int, commit bool) (EncodedInstr, bool)

	// EnlargeBranch rewrites a too-short branch encoding into its longer
	// form in place.
	EnlargeBranch(l *LIR)
}
