package dex

// CodeItem is the fixed-layout record the loader hands the core for one
// method body. The core never mutates it; every field here is
// a read-only view over the loader's backing buffer.
type CodeItem struct {
	RegistersSize uint16
	InsSize       uint16
	OutsSize      uint16
	TriesSize     uint16

	// Insns is the raw 16-bit Dalvik code unit stream. Instruction
	// decoding (opcode + operand extraction) happens in internal/mir,
	// never here.
	Insns []uint16

	Tries    []TryItem
	Handlers []CatchHandler
}

// InsnsSizeInCodeUnits is the length of Insns, used directly by the hard
// filter's "insns_size_in_code_units >= 2^14" gate.
func (c *CodeItem) InsnsSizeInCodeUnits() int { return len(c.Insns) }

// TryItem describes one try-block's covered range, dex-PC addressed in
// 16-bit code units like Insns.
type TryItem struct {
	StartAddr  uint32
	InsnCount  uint16
	HandlerOff uint16 // index into the CodeItem's flattened Handlers, resolved by the loader
}

// CatchHandler is one (exception-type, handler-dex-pc) pair, or the
// catch-all marker when TypeIdx == CatchAllTypeIdx.
type CatchHandler struct {
	TypeIdx uint32
	Addr    uint32
}

// CatchAllTypeIdx marks a handler that catches every exception type.
const CatchAllTypeIdx = ^uint32(0)

// NumDalvikRegisters is RegistersSize, named to match the hard filter's
// "num_dalvik_registers > 2^15-1" hard-filter check.
func (c *CodeItem) NumDalvikRegisters() int { return int(c.RegistersSize) }
