package backend

// SwitchTable is one packed/sparse switch's literal-pool payload.
// Large packed switches emit a PC-relative table lookup and
// indirect branch; large sparse switches emit a linear-scan loop.
// Tables are appended to the literal pool and their absolute offset is
// patched at assembly time").
type SwitchTable struct {
	Packed bool
	// Keys holds every case value for a sparse switch; nil for packed
	// (whose keys are FirstKey, FirstKey+1, ... implicitly).
	Keys     []int32
	FirstKey int32
	Targets  []LIRID

	// Anchor is the branch-to-table LIR this table's entries encode
	// displacements relative to. Set once the anchor instruction is emitted.
	Anchor LIRID

	// literalOffset is the table's position in the method's literal
	// pool, assigned by AppendToLiteralPool.
	literalOffset int
}

// LiteralPool accumulates switch tables (and, in principle, other
// constant data) appended during lowering and patched once the method's
// final layout is known.
type LiteralPool struct {
	tables []*SwitchTable
	size   int
}

// AppendSwitchTable records t in the pool and returns its assigned
// offset from the start of the pool.
func (p *LiteralPool) AppendSwitchTable(t *SwitchTable) int {
	off := p.size
	t.literalOffset = off
	p.tables = append(p.tables, t)
	entries := len(t.Targets)
	p.size += 4 + entries*4 // one 32-bit header word + one word per entry, a representative fixed layout
	return off
}

// Size is the literal pool's total byte size once every table has been
// appended.
func (p *LiteralPool) Size() int { return p.size }

// Tables returns every switch table recorded so far, in append order
// .
func (p *LiteralPool) Tables() []*SwitchTable { return p.tables }

// ShouldEmitAsPackedTable decides between the two switch lowering
// strategies: a packed (PC-relative jump table)
// switch is worthwhile once it has enough cases that a linear scan would
// cost more branches than one indirect jump; a handful of sparse cases
// is cheaper as a linear scan.
func ShouldEmitAsPackedTable(packed bool, caseCount int) bool {
	if packed {
		return true
	}
	const sparseLinearScanCutoff = 4
	return caseCount > sparseLinearScanCutoff
}
