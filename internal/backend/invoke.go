package backend

import (
	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/internal/mir"
)

// InvokeState is one step of a per-ISA invoke dispatch state machine
// .
type InvokeState int

const InvokeStateDone InvokeState = -1

// InvokeKind selects which of the four invoke state machines
// drives a given call site.
type InvokeKind uint8

const (
	InvokeKindDirectStatic InvokeKind = iota
	InvokeKindVirtual
	InvokeKindInterface
	InvokeKindSlowPath
)

// InvokeSite bundles everything one call site's state machine needs:
// the lowering-cache entry (for the devirt/vtable/IMT info already
// resolved by internal/mir's MethodLoweringCache) and the kind selected
// from its dex.InvokeType plus whatever the verifier's devirt map
// proved.
type InvokeSite struct {
	Entry *mir.MethodLoweringEntry
	Kind  InvokeKind
}

func classifyInvokeKind(e *mir.MethodLoweringEntry) InvokeKind {
	switch e.Invoke {
	case dex.InvokeStatic, dex.InvokeDirect:
		return InvokeKindDirectStatic
	case dex.InvokeInterface:
		return InvokeKindInterface
	default: // Virtual, Super
		if e.HasDevirt {
			return InvokeKindDirectStatic
		}
		return InvokeKindVirtual
	}
}

// NewInvokeSite classifies a method-lowering-cache entry into the state
// machine that should drive it.
func NewInvokeSite(e *mir.MethodLoweringEntry) InvokeSite {
	return InvokeSite{Entry: e, Kind: classifyInvokeKind(e)}
}

// invokeStep is one LIR-emitting action plus its next state, returned by
// a Machine-specific step function. Concrete ISA backends provide the
// step functions (argument marshalling is target-specific: which
// registers, what instruction loads a vtable/IMT slot); this package
// only owns the state numbering and the loop that drives it. The next
// state is a deterministic function of (site, state) alone; the
// terminal state is InvokeStateDone.
type invokeStep func(g *Graph, site InvokeSite, state InvokeState) (next InvokeState)

// directStaticSteps: state 0 loads the known code address as a constant,
// state 1 emits the call and hidden-arg-free branch-and-link.
const (
	invokeStateLoadTarget InvokeState = iota
	invokeStateEmitCall
)

// virtualSteps additionally walks the vtable: state 0 loads this->klass
// (implicitly null-checking this), state 1 loads the vtable slot, state
// 2 emits the call.
const (
	invokeStateLoadKlass InvokeState = iota
	invokeStateLoadVTableSlot
	invokeStateEmitCallVirtual
)

// interfaceSteps additionally load the IMT entry and set the hidden arg
// register before the call.
const (
	invokeStateLoadIMTEntry InvokeState = iota
	invokeStateSetHiddenArg
	invokeStateEmitCallInterface
)

// RunInvokeStateMachine drives site's dispatch to completion, delegating
// each step's actual LIR emission to step, and returns the number of
// steps taken, looping until step returns InvokeStateDone.
func RunInvokeStateMachine(g *Graph, site InvokeSite, step invokeStep) int {
	state := InvokeState(0)
	n := 0
	for state != InvokeStateDone {
		state = step(g, site, state)
		n++
		if n > 64 {
			// A well-formed state machine never takes this long; treat it as
			// the programmer-error fatal case the failure semantics
			// reserve for "unknown or unsupported opcode encountered in
			// codegen".
			panic("backend: invoke state machine did not terminate")
		}
	}
	return n
}

// BulkCopyThreshold is the outgoing-word count above which argument
// marshalling emits a memcpy runtime call instead of inline moves.
const BulkCopyThreshold = 16

// ShortyArg describes one argument slot's destination as
// InToRegStorageMapper would.
type ShortyArg struct {
	Wide bool
	FP   bool
	Ref  bool
	// RegIndex is valid when InReg is true; otherwise the argument goes
	// to StackSlot (a word offset into the outgoing-args area).
	InReg     bool
	RegIndex  int
	StackSlot int
}

// MapArgs assigns each shorty argument to a register or stack slot,
// consuming argRegsCore/argRegsFP in order and spilling the remainder to
// sequential stack slots, modeling InToRegStorageMapper without needing
// a full target-specific ABI object.
func MapArgs(shorty string, argRegsCore, argRegsFP []int) []ShortyArg {
	var args []ShortyArg
	coreUsed, fpUsed, slot := 0, 0, 0
	for i := 1; i < len(shorty); i++ { // shorty[0] is the return type
		c := shorty[i]
		a := ShortyArg{
			Wide: c == 'J' || c == 'D',
			FP:   c == 'F' || c == 'D',
			Ref:  c == 'L' || c == '[',
		}
		if a.FP {
			if fpUsed < len(argRegsFP) {
				a.InReg, a.RegIndex = true, argRegsFP[fpUsed]
				fpUsed++
			} else {
				a.StackSlot = slot
				slot++
			}
		} else {
			if coreUsed < len(argRegsCore) {
				a.InReg, a.RegIndex = true, argRegsCore[coreUsed]
				coreUsed++
			} else {
				a.StackSlot = slot
				slot++
			}
		}
		if a.Wide && !a.InReg {
			slot++ // a spilled wide argument consumes two stack words
		}
		args = append(args, a)
	}
	return args
}
