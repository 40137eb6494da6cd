package mir

// ID is a small integer handle into the Graph's instruction pool. Using
// an id instead of a pointer lets the whole MIR graph live in one
// arena.Pool and be discarded with a single Reset.
type ID int32

const InvalidID ID = -1

// OptFlags are the bits a pass may set or consult on one MIR instruction.
type OptFlags uint16

const (
	// FlagNullCheckEliminated marks a load/store/invoke whose implicit
	// null check a pass has proven redundant.
	FlagNullCheckEliminated OptFlags = 1 << iota

	// FlagClassInitChecked marks a static field access or static
	// invoke whose owning class a pass has proven already initialized
	// on every path reaching it.
	FlagClassInitChecked

	// FlagSpecialInlineCandidate marks a method body the inliner
	// recognized as one of its canned special patterns.
	FlagSpecialInlineCandidate

	// FlagPuntToInterpreter marks an instruction the backend cannot
	// lower on this target, forcing the whole method to the soft
	// filter's Skip outcome.
	FlagPuntToInterpreter
)

// Kind distinguishes which union member of Meta is valid
// ("meta (union: {ifield_info_index, sfield_info_index,
// method_info_index, ...})").
type MetaKind uint8

const (
	MetaNone MetaKind = iota
	MetaFieldInfoIndex
	MetaMethodInfoIndex
)

// Meta is the small tagged union attached to field/invoke MIR.
type Meta struct {
	Kind  MetaKind
	Index int32 // index into FieldLoweringCache or MethodLoweringCache; always < cache size
}

// SSARep captures the dataflow attributes of one instruction: its
// defined and used virtual registers, named to mirror ART's ssa_rep but
// generalized to carry def/use vregs rather than true SSA names, since
// this IR (like wazero's) keeps definitions in place per basic
// block and only needs def/use for the local register allocator and
// liveness passes, not a full SSA renaming.
type SSARep struct {
	Defs []int32 // dalvik vreg numbers defined by this instruction
	Uses []int32 // dalvik vreg numbers used by this instruction
}

// NumDefs must equal the arity the opcode's dataflow attributes declare.
func (s SSARep) NumDefs() int { return len(s.Defs) }

// Instruction is one MIR node.
// Instructions within a block form a singly linked list via Next, walked
// in program order by the backend.
type Instruction struct {
	Opcode   Opcode
	Operands [5]int64 // immediate/offset/branch-target payload; interpretation is opcode-specific
	Offset   uint32   // dex PC

	Flags OptFlags
	SSA   SSARep
	Meta  Meta

	BB   BlockID
	Next ID
	id   ID
}

// ID returns this instruction's own id in its owning Graph.
func (m *Instruction) ID() ID { return m.id }

// HasMeta reports whether Meta is populated, i.e. Opcode is a field or
// invoke instruction.
func (m *Instruction) HasMeta() bool { return m.Opcode.IsFieldOp() || m.Opcode.IsInvoke() }

// BranchTarget reads the dex-PC branch target operand conventionally
// stored in Operands[0] for branch/goto/switch opcodes.
func (m *Instruction) BranchTarget() uint32 { return uint32(m.Operands[0]) }
