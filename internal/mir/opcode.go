// Package mir implements the Middle IR graph construction and lowering
// cache and the basic-block data model.
// MIR and LIR follow wazero's "arena + indices replace pointer
// graphs" approach: nodes live in arena.Pool-backed storage and
// reference each other by small integer id, never by owning pointer, so
// that a whole method's IR is released in one Arena.Reset call.
package mir

// Opcode is either a genuine Dalvik opcode or one of the pseudo-opcodes
// the backend and optimizer introduce.
type Opcode uint16

const (
	OpInvalid Opcode = iota

	// --- Real Dalvik opcodes (representative subset; a full loader
	// would cover all ~220, but every family this package's lowering
	// and every end-to-end scenario this repo tests exercises is
	// present here). ---

	OpNop
	OpMove
	OpMoveWide
	OpMoveObject
	OpMoveResult
	OpMoveException
	OpReturnVoid
	OpReturn
	OpReturnWide
	OpReturnObject
	OpConst
	OpConstWide
	OpConstString
	OpConstClass
	OpMonitorEnter
	OpMonitorExit
	OpCheckCast
	OpInstanceOf
	OpArrayLength
	OpNewInstance
	OpNewArray
	OpFilledNewArray
	OpFillArrayData
	OpThrow
	OpAget
	OpAput
	OpIget
	OpIput
	OpSget
	OpSput
	OpIGetQuick
	OpIPutQuick
	OpInvokeVirtual
	OpInvokeSuper
	OpInvokeDirect
	OpInvokeStatic
	OpInvokeInterface
	OpInvokeVirtualQuick
	OpGoto
	OpIfEq
	OpIfNe
	OpIfLt
	OpIfGe
	OpIfGt
	OpIfLe
	OpPackedSwitch
	OpSparseSwitch
	OpNeg
	OpNot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpUshr
	OpCmp
	OpIntToFloat
	OpIntToDouble
	OpIntToLong

	// --- Pseudo-opcodes the optimizer introduces; they never come from
	// the loader's raw instruction stream. ---

	OpFusedCmpBranch
)

// IsQuickened reports whether this opcode carries a pre-resolved
// offset/vtable-index operand instead of a dex index.
func (o Opcode) IsQuickened() bool {
	switch o {
	case OpIGetQuick, OpIPutQuick, OpInvokeVirtualQuick:
		return true
	default:
		return false
	}
}

// IsFieldOp reports whether this opcode accesses an instance or static
// field, i.e. whether MIR.Meta is a field-lowering-cache index.
func (o Opcode) IsFieldOp() bool {
	switch o {
	case OpIget, OpIput, OpSget, OpSput, OpIGetQuick, OpIPutQuick:
		return true
	default:
		return false
	}
}

// IsInvoke reports whether this opcode is a call, i.e. whether MIR.Meta
// is a method-lowering-cache index.
func (o Opcode) IsInvoke() bool {
	switch o {
	case OpInvokeVirtual, OpInvokeSuper, OpInvokeDirect, OpInvokeStatic, OpInvokeInterface, OpInvokeVirtualQuick:
		return true
	default:
		return false
	}
}

// IsStaticFieldOp reports whether this is a static (as opposed to
// instance) field access, used to tag the lowering cache's entries.
func (o Opcode) IsStaticFieldOp() bool {
	return o == OpSget || o == OpSput
}

// IsHeavyweight reports whether this opcode counts towards the soft
// filter's heavyweight_ops aggregate.
func (o Opcode) IsHeavyweight() bool {
	if o.IsInvoke() {
		return true
	}
	switch o {
	case OpNewInstance, OpNewArray, OpFilledNewArray, OpThrow:
		return true
	default:
		return false
	}
}

// IsBranch reports whether this opcode can end a basic block with a
// conditional edge.
func (o Opcode) IsBranch() bool {
	switch o {
	case OpIfEq, OpIfNe, OpIfLt, OpIfGe, OpIfGt, OpIfLe, OpFusedCmpBranch:
		return true
	default:
		return false
	}
}

// IsTerminator reports whether this opcode always ends a basic block.
func (o Opcode) IsTerminator() bool {
	switch o {
	case OpReturnVoid, OpReturn, OpReturnWide, OpReturnObject,
		OpThrow, OpGoto, OpPackedSwitch, OpSparseSwitch:
		return true
	default:
		return o.IsBranch()
	}
}

// IsMath reports whether this opcode counts towards math_ops.
func (o Opcode) IsMath() bool {
	switch o {
	case OpNeg, OpNot, OpAdd, OpSub, OpMul, OpDiv, OpRem, OpAnd, OpOr, OpXor, OpShl, OpShr, OpUshr, OpCmp:
		return true
	default:
		return false
	}
}

// IsArrayOp reports whether this opcode is an array element load or
// store.
func (o Opcode) IsArrayOp() bool { return o == OpAget || o == OpAput }
