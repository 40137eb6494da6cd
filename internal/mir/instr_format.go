package mir

// shape describes how many 16-bit code units follow the opcode unit for
// one Opcode, and what they mean. The real dex wire format (how these
// units are bit-packed on disk) is owned by the external DEX
// loader/parser; this table is this module's own internal
// contract for the decoded-but-still-code-unit-shaped stream Build
// consumes, analogous to how original_source/compiler/dex/mir_analysis.cc
// consults a per-opcode Instruction::Format rather than re-deriving it.
type shape struct {
	regs      int  // number of vreg operands
	imm16     bool // one extra unit: a 16-bit immediate/index
	imm32     bool // two extra units: a 32-bit immediate (wide const)
	branch    bool // one extra unit: a signed code-unit branch displacement
	switchRef bool // one extra unit: index into the CodeItem's switch payload table
	fieldIdx  bool // one extra unit: field index (dex or cache index if quickened)
	methodIdx bool // one extra unit: method index (dex or vtable index if quickened)
}

func (s shape) width() int {
	w := 1 + s.regs
	if s.imm16 {
		w++
	}
	if s.imm32 {
		w += 2
	}
	if s.branch {
		w++
	}
	if s.switchRef {
		w++
	}
	if s.fieldIdx {
		w++
	}
	if s.methodIdx {
		w++
	}
	return w
}

var shapes = map[Opcode]shape{
	OpNop:                {},
	OpMove:               {regs: 2},
	OpMoveWide:           {regs: 2},
	OpMoveObject:         {regs: 2},
	OpMoveResult:         {regs: 1},
	OpMoveException:      {regs: 1},
	OpReturnVoid:         {},
	OpReturn:             {regs: 1},
	OpReturnWide:         {regs: 1},
	OpReturnObject:       {regs: 1},
	OpConst:              {regs: 1, imm32: true},
	OpConstWide:          {regs: 1, imm32: true},
	OpConstString:        {regs: 1, imm16: true},
	OpConstClass:         {regs: 1, imm16: true},
	OpMonitorEnter:       {regs: 1},
	OpMonitorExit:        {regs: 1},
	OpCheckCast:          {regs: 1, imm16: true},
	OpInstanceOf:         {regs: 2, imm16: true},
	OpArrayLength:        {regs: 2},
	OpNewInstance:        {regs: 1, imm16: true},
	OpNewArray:           {regs: 2, imm16: true},
	OpFilledNewArray:     {regs: 3, imm16: true},
	OpFillArrayData:      {regs: 1, switchRef: true},
	OpThrow:              {regs: 1},
	OpGoto:               {branch: true},
	OpPackedSwitch:       {regs: 1, switchRef: true},
	OpSparseSwitch:       {regs: 1, switchRef: true},
	OpCmp:                {regs: 3},
	OpIfEq:               {regs: 2, branch: true},
	OpIfNe:               {regs: 2, branch: true},
	OpIfLt:               {regs: 2, branch: true},
	OpIfGe:               {regs: 2, branch: true},
	OpIfGt:               {regs: 2, branch: true},
	OpIfLe:               {regs: 2, branch: true},
	OpAget:               {regs: 3},
	OpAput:               {regs: 3},
	OpIget:               {regs: 2, fieldIdx: true},
	OpIput:               {regs: 2, fieldIdx: true},
	OpSget:               {regs: 1, fieldIdx: true},
	OpSput:               {regs: 1, fieldIdx: true},
	OpIGetQuick:          {regs: 2, fieldIdx: true},
	OpIPutQuick:          {regs: 2, fieldIdx: true},
	OpInvokeVirtual:      {regs: 5, methodIdx: true, imm16: true},
	OpInvokeSuper:        {regs: 5, methodIdx: true, imm16: true},
	OpInvokeDirect:       {regs: 5, methodIdx: true, imm16: true},
	OpInvokeStatic:       {regs: 5, methodIdx: true, imm16: true},
	OpInvokeInterface:    {regs: 5, methodIdx: true, imm16: true},
	OpInvokeVirtualQuick: {regs: 5, methodIdx: true, imm16: true},
	OpNeg:                {regs: 2},
	OpNot:                {regs: 2},
	OpIntToLong:          {regs: 2},
	OpIntToFloat:         {regs: 2},
	OpIntToDouble:        {regs: 2},
	OpAdd:                {regs: 3},
	OpSub:                {regs: 3},
	OpMul:                {regs: 3},
	OpDiv:                {regs: 3},
	OpRem:                {regs: 3},
	OpAnd:                {regs: 3},
	OpOr:                 {regs: 3},
	OpXor:                {regs: 3},
	OpShl:                {regs: 3},
	OpShr:                {regs: 3},
	OpUshr:               {regs: 3},
}

// width returns the number of 16-bit code units this opcode (and its
// operands) occupies. Nothing in this module calls it: scan counts the
// same units while decoding, and the hard filter's size gate reads
// CodeItem.InsnsSizeInCodeUnits.
func width(op Opcode) int {
	s, ok := shapes[op]
	if !ok {
		return 1
	}
	return s.width()
}
