package passop

import "github.com/dexaot/aotcore/internal/mir"

// runSpecialMethodInlining consults the driver-supplied SpecialInliner
// (internal/inliner) for every invoke site and, when it matches a
// canned pattern, marks the MIR so the filter can
// later decide to emit the canned stub instead of a full compile.
func runSpecialMethodInlining(g *mir.Graph, ctx *Context) {
	if ctx.Inliner == nil {
		return
	}
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			if !m.Opcode.IsInvoke() {
				continue
			}
			if ctx.Inliner.TryInline(m.Meta.Index) {
				m.Flags |= mir.FlagSpecialInlineCandidate
			}
		}
	}
}
