// Package passop implements the ordered optimization pass list: the
// pass driver runs an ordered list, and each pass is parameterized
// by a bit in the disable_opt mask and may be skipped per-ISA. Passes
// read/write MIR in place and must never invalidate block ids,
// matching wazero's own pass.go convention of a
// fixed function order run over one builder/graph (ssa/pass.go
// "RunPasses... The order here matters; some pass depends on the
// previous ones.").
package passop

import "github.com/dexaot/aotcore/internal/mir"

// DisableOptMask is the per-compilation bitmask
// ("disable_opt bitmask") that lets the driver turn off individual
// passes, e.g. for debugging a miscompile.
type DisableOptMask uint32

const (
	DisableNullCheckElimination DisableOptMask = 1 << iota
	DisableClassInitCheckElimination
	DisableSpecialMethodInlining
	DisableGVN
	DisableDCE
	DisableConstantFolding
	DisableLoadStoreElimination
	DisableBBCombine
	DisableRegisterPromotion
	DisableTempLiveness
)

// SpecialInliner lets the special-method-inlining pass consult the
// per-dex inliner map (internal/inliner) without passop importing it
// directly, avoiding an import cycle.
type SpecialInliner interface {
	// TryInline reports whether the invoke MIR at entry idx of the
	// method-lowering cache names a special pattern. It returns only that
	// verdict; the call site itself is left untouched either way.
	TryInline(methodLoweringIdx int32) (ok bool)
}

// Pass is one optimization pass over a Graph.
type Pass struct {
	Name string
	Bit  DisableOptMask
	Run  func(g *mir.Graph, ctx *Context)
}

// Context carries the per-ISA skip set and the special-method-inliner
// handle through the whole ordered run.
type Context struct {
	Disable    DisableOptMask
	ISASkip    DisableOptMask // passes this target's backend never benefits from
	Inliner    SpecialInliner
	Statistics Statistics
}

// Statistics accumulates simple pass counters on the Context. The driver
// does not print or export them, and CompilerOptions.DumpStats is not
// consulted.
type Statistics struct {
	NullChecksEliminated      int
	ClassInitChecksEliminated int
	InstructionsFolded        int
	InstructionsEliminated    int
	BlocksCombined            int
}

// OrderedPasses is the canonical pass order: "null-check
// elimination, class-init-check elimination, special-method-inlining,
// global value numbering, dead-code elimination, constant folding,
// load-store elimination, BB-combine, register promotion decisions, temp
// liveness."
func OrderedPasses() []Pass {
	return []Pass{
		{Name: "null-check-elimination", Bit: DisableNullCheckElimination, Run: runNullCheckElimination},
		{Name: "class-init-check-elimination", Bit: DisableClassInitCheckElimination, Run: runClassInitCheckElimination},
		{Name: "special-method-inlining", Bit: DisableSpecialMethodInlining, Run: runSpecialMethodInlining},
		{Name: "global-value-numbering", Bit: DisableGVN, Run: runGVN},
		{Name: "dead-code-elimination", Bit: DisableDCE, Run: runDCE},
		{Name: "constant-folding", Bit: DisableConstantFolding, Run: runConstantFolding},
		{Name: "load-store-elimination", Bit: DisableLoadStoreElimination, Run: runLoadStoreElimination},
		{Name: "bb-combine", Bit: DisableBBCombine, Run: runBBCombine},
		{Name: "register-promotion", Bit: DisableRegisterPromotion, Run: runRegisterPromotion},
		{Name: "temp-liveness", Bit: DisableTempLiveness, Run: runTempLiveness},
	}
}

// RunAll drives every pass in order, skipping any whose bit is set in
// ctx.Disable or ctx.ISASkip. A pass must not invalidate block ids;
// this driver enforces nothing beyond that contract, matching the
// teacher's own "trust the pass" posture in ssa/pass.go.
func RunAll(g *mir.Graph, ctx *Context) {
	for _, p := range OrderedPasses() {
		if ctx.Disable&p.Bit != 0 || ctx.ISASkip&p.Bit != 0 {
			continue
		}
		p.Run(g, ctx)
	}
}
