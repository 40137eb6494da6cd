package aotcore

import (
	"sort"

	"github.com/dexaot/aotcore/classlinker"
	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/cfi"
	"github.com/dexaot/aotcore/internal/dedup"
	"github.com/dexaot/aotcore/internal/diag"
	"github.com/dexaot/aotcore/internal/filter"
	"github.com/dexaot/aotcore/internal/inliner"
	"github.com/dexaot/aotcore/internal/mir"
	"github.com/dexaot/aotcore/internal/mir/passop"
	"github.com/dexaot/aotcore/internal/packager"
	"github.com/dexaot/aotcore/internal/verifyresults"
	"github.com/dexaot/aotcore/verifier"
)

// CompiledMethod is what CompileMethod returns on success: the finished
// code plus the packager's three side tables and CFI, ready for the
// oat writer to lay out.
type CompiledMethod struct {
	*packager.Method

	// Deduplicated reports whether this artifact's bytes were already
	// present in the driver's dedup table; Method then aliases the
	// existing entry rather than a freshly built one.
	Deduplicated bool
}

// Driver is the per-compilation-session context compile_method runs
// against: fixed configuration, the selected backend Machine, the two
// external collaborators (class linker, verifier registry), and the
// process-wide dedup table. One Driver is constructed at compiler
// startup and lives for the whole run.
type Driver struct {
	Options     *CompilerOptions
	Machine     backend.Machine
	ClassLinker classlinker.ClassLinker
	Verifier    verifier.Registry
	Inliner     *inliner.Map
	Dedup       *dedup.Table
	Logger      diag.Logger
}

// NewDriver builds a Driver ready to compile methods against machine,
// consulting linker for field/method resolution and verifier for
// devirtualization and safe-cast hints.
func NewDriver(opts *CompilerOptions, machine backend.Machine, linker classlinker.ClassLinker, ver verifier.Registry) *Driver {
	if opts == nil {
		opts = NewCompilerOptions()
	}
	d := &Driver{
		Options:     opts,
		Machine:     machine,
		ClassLinker: linker,
		Verifier:    ver,
		Logger:      diag.Nop{},
	}
	if opts.DedupEnabled {
		d.Dedup = dedup.NewTable()
	}
	return d
}

// CompileMethod implements the core's single entry point: build MIR,
// run the hard and soft filters, and on a Compile verdict lower to LIR,
// assemble, and package. A Skip verdict (or a hard-filter rejection)
// returns (nil, nil), mirroring compile_method's Option<CompiledMethod>
// contract in a language without Option types.
func (d *Driver) CompileMethod(
	file dex.FileID,
	code *dex.CodeItem,
	accessFlags dex.AccessFlags,
	invokeType dex.InvokeType,
	classDefIdx uint32,
	methodIdx uint32,
	shorty string,
) (*CompiledMethod, error) {
	ref := dex.MethodReference{File: file, Index: methodIdx}

	g := mir.NewGraph()
	mir.NewBuilder(g, code).Build()

	if hard := filter.RunHardFilter(code, shorty, g, d.Machine); hard.Rejected {
		d.Logger.Logf(diag.ScopeFilter, "method %s rejected by hard filter: %s", ref, hard.Reason)
		return nil, nil
	}

	session := verifyresults.NewSession(d.Verifier, ref)
	verified, hasVerified := session.Fetch()
	defer session.Release()

	d.resolveFieldSites(g, file)
	d.resolveMethodSites(g, file, verified, hasVerified)

	isStaticInit := accessFlags.Has(dex.AccStatic) && accessFlags.Has(dex.AccConstructor)

	ctx := &passop.Context{Disable: 0, ISASkip: 0}
	if d.Inliner != nil {
		ctx.Inliner = inliner.Bound{
			FileInliner: d.Inliner.Get(file),
			Resolve: func(idx int32) (uint32, bool) {
				e := g.Methods.Get(idx)
				if e == nil {
					return 0, false
				}
				return e.TargetMethodIdx, true
			},
		}
	}
	passop.RunAll(g, ctx)

	stats := filter.Analyze(g)
	outcome := filter.Decide(filter.Input{
		Mode:                  d.Options.Filter,
		Thresholds:            d.Options.Thresholds,
		Stats:                 stats,
		IsStaticClassInit:     isStaticInit,
		MatchesSpecialInliner: anyFlag(g, mir.FlagSpecialInlineCandidate),
		PuntToInterpreter:     anyFlag(g, mir.FlagPuntToInterpreter),
	})

	switch outcome {
	case filter.OutcomeSkip:
		d.Logger.Logf(diag.ScopeFilter, "method %s skipped by soft filter", ref)
		return nil, nil
	case filter.OutcomeSpecialStub, filter.OutcomeCompile:
		// Both verdicts proceed to codegen; a SpecialStub lowers the
		// method's own MIR through the normal backend, since the
		// special-method-inlining pass only flags the site and replaces
		// nothing.
	}

	return d.lowerAndPackage(g, code, ref)
}

// resolveFieldSites walks the MIR graph's field lowering cache once,
// resolving every distinct site through the class linker. A site the
// linker fails to resolve is left Resolved=false and compilation goes
// on. No backend's LowerMIR reads that flag: field opcodes get no
// dedicated lowering, and no runtime resolution call or linker patch is
// emitted for an unresolved site.
func (d *Driver) resolveFieldSites(g *mir.Graph, file dex.FileID) {
	if d.ClassLinker == nil {
		return
	}
	for i := int32(0); i < int32(g.Fields.Size()); i++ {
		e := g.Fields.Get(i)
		access := fieldAccessType(e)
		_, err := d.ClassLinker.ResolveField(file, e.FieldIdx, access)
		g.Fields.Resolve(i, err == nil)
	}
}

// fieldAccessType picks a representative FieldAccessType for a lowering
// cache entry. The cache collapses a get and a put to the same field
// into one entry (both key off fieldIdx/isStatic/quickened alone, not
// get-vs-put), since resolving a field's declaring class and offset
// doesn't depend on which direction a given site accesses it in — the
// verifier has already proven the access itself is legal by the time
// the core sees it. The Get variant is passed here purely to satisfy
// ResolveField's signature.
func fieldAccessType(e *mir.FieldLoweringEntry) classlinker.FieldAccessType {
	if e.IsStatic {
		return classlinker.StaticGet
	}
	return classlinker.InstanceGet
}

// resolveMethodSites resolves every distinct invoke site through the
// class linker and, where the verifier proved a devirtualization target
// for a specific call instruction's dex PC, records it against that
// site's lowering-cache entry.
func (d *Driver) resolveMethodSites(g *mir.Graph, file dex.FileID, verified verifier.VerifiedMethod, hasVerified bool) {
	if d.ClassLinker != nil {
		for i := int32(0); i < int32(g.Methods.Size()); i++ {
			e := g.Methods.Get(i)
			_, err := d.ClassLinker.ResolveMethod(file, e.TargetMethodIdx, e.Invoke)
			g.Methods.Resolve(i, err == nil)
		}
	}
	if !hasVerified || verified == nil {
		return
	}
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			if !m.Opcode.IsInvoke() || m.Meta.Kind != mir.MetaMethodInfoIndex {
				continue
			}
			if target, ok := verified.Devirtualize(m.Offset); ok {
				g.Methods.SetDevirt(m.Meta.Index, target.Method)
			}
		}
	}
}

func anyFlag(g *mir.Graph, f mir.OptFlags) bool {
	it := g.RPO()
	for blk := it.Next(); blk != nil; blk = it.Next() {
		ii := g.Instrs(blk)
		for m := ii.Next(); m != nil; m = ii.Next() {
			if m.Flags&f != 0 {
				return true
			}
		}
	}
	return false
}

// lowerAndPackage runs block scheduling, the two-pass assembler, and the
// packager's side-table builders, then interns the result in the dedup
// table if enabled.
func (d *Driver) lowerAndPackage(g *mir.Graph, code *dex.CodeItem, ref dex.MethodReference) (*CompiledMethod, error) {
	unit := backend.NewCompilationUnit(d.Machine)

	activity := buildVregActivity(g)
	unit.Pool = regalloc.BuildPromotionMap(activity, d.Machine.CoreRegCount()/4, d.Machine.FPRegCount()/4)

	frameSize, coreSpillMask, fpSpillMask := computeFrameLayout(code, unit.Pool, activity)

	unit.ScheduleBlocks(g, frameSize, coreSpillMask, fpSpillMask)
	result := backend.Assemble(unit.LIR, d.Machine)
	unit.Safe.ResolveOffsets(unit.LIR)

	maxRefVreg := maxRefVregIndex(activity)
	gcEntries := make([]packager.GCMapEntry, 0, len(unit.Safe.Safepoints()))
	for _, sp := range unit.Safe.Safepoints() {
		gcEntries = append(gcEntries, packager.GCMapEntry{NativePC: sp.NativePC, RefBits: sp.RefVregs})
	}
	gcMap, _ := packager.BuildGCMap(gcEntries, maxRefVreg)

	safepoints := make([]packager.SafepointEntry, 0, len(unit.Safe.Safepoints()))
	for _, sp := range unit.Safe.Safepoints() {
		safepoints = append(safepoints, packager.SafepointEntry{NativePC: sp.NativePC, DexPC: int(sp.DexPC)})
	}
	catches := buildCatchEntries(g, unit)
	mappingTable := packager.BuildMappingTable(safepoints, catches)

	vmapTable := packager.BuildVmapTable(promotedRegs(unit.Pool, activity, regalloc.ClassCore), promotedRegs(unit.Pool, activity, regalloc.ClassFP))

	cfiBytes := d.buildCFI(frameSize, coreSpillMask, fpSpillMask, len(result.Code))

	header := packager.QuickMethodHeader{
		MappingTableOffset: uint32(len(mappingTable)),
		VmapTableOffset:    uint32(len(vmapTable)),
		FrameSize:          uint32(frameSize),
		CoreSpillMask:      coreSpillMask,
		FPSpillMask:        fpSpillMask,
		CodeSize:           uint32(len(result.Code)),
	}

	method := &packager.Method{
		Header:       header,
		Code:         result.Code,
		MappingTable: mappingTable,
		VmapTable:    vmapTable,
		GCMap:        gcMap,
		CFI:          cfiBytes,
	}

	kept, deduplicated := packager.Package(method, d.Dedup)
	d.Logger.Logf(diag.ScopeStats, "method %s compiled: %d code bytes, deduplicated=%v", ref, len(kept.Code), deduplicated)
	return &CompiledMethod{Method: kept, Deduplicated: deduplicated}, nil
}

// buildVregActivity converts the register-promotion pass's per-vreg
// hints into the activity summary regalloc.BuildPromotionMap consumes.
// Every vreg is classified ClassCore: this simplified backend has no
// type information (int vs. float) at the VregHint level to distinguish
// an FP-promotable vreg from an integer one, so no method ever promotes
// into the FP bank. A real ART-style promoter reads the dex shorty/field
// descriptors to make that call; wiring that through would mean
// threading type info into VregHint, left as a follow-up since this
// core's FP lowering paths already work correctly off spill slots.
func buildVregActivity(g *mir.Graph) []regalloc.VregActivity {
	out := make([]regalloc.VregActivity, 0, len(g.VregHints))
	for vreg, h := range g.VregHints {
		out = append(out, regalloc.VregActivity{Vreg: vreg, Score: h.Defs + h.Uses, Class: regalloc.ClassCore})
	}
	return out
}

func maxRefVregIndex(activity []regalloc.VregActivity) int {
	highest := 0
	for _, a := range activity {
		if int(a.Vreg) > highest {
			highest = int(a.Vreg)
		}
	}
	return highest
}

func promotedRegs(pm regalloc.PromotionMap, activity []regalloc.VregActivity, class regalloc.Class) []int {
	var out []int
	for _, a := range activity {
		v, ok := pm.Lookup(a.Vreg)
		if ok && v.Class() == class {
			out = append(out, v.Index())
		}
	}
	return out
}

// computeFrameLayout sizes the stack frame from the method's Dalvik
// register count plus outs (the frame layout is register-count
// driven: every Dalvik vreg gets an 8-byte spill slot whether or not it
// is promoted, plus one 8-byte slot per out, rounded up to 16 bytes)
// and derives the
// core/fp spill masks from which physical registers the promotion map
// actually assigned, since only those need callee-save treatment across
// the method body.
func computeFrameLayout(code *dex.CodeItem, pm regalloc.PromotionMap, activity []regalloc.VregActivity) (frameSize int, coreMask, fpMask uint32) {
	slots := int(code.RegistersSize) + int(code.OutsSize)
	frameSize = (slots*8 + 15) &^ 15

	for _, a := range activity {
		v, ok := pm.Lookup(a.Vreg)
		if !ok {
			continue
		}
		if v.Class() == regalloc.ClassFP {
			fpMask |= 1 << uint(v.Index())
		} else {
			coreMask |= 1 << uint(v.Index())
		}
	}
	return
}

// buildCatchEntries resolves every recorded catch handler's block id to
// its native offset now that block scheduling has assigned one, pairing
// it with the dex PC the MIR builder recorded it under, sorted by dex PC
// for the mapping table.
func buildCatchEntries(g *mir.Graph, unit *backend.CompilationUnit) []packager.CatchEntry {
	var out []packager.CatchEntry
	for dexPC, blockID := range g.CatchEntries {
		if nativePC, ok := unit.BlockNativeOffset(blockID); ok {
			out = append(out, packager.CatchEntry{DexPC: int(dexPC), NativePC: nativePC})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DexPC < out[j].DexPC })
	return out
}

// buildCFI produces a generic DWARF-style frame description covering the
// prologue's stack growth and the registers the spill masks name. It
// does not track a per-ISA canonical frame register the way a real
// Machine.EmitPrologue-paired CFI builder would (see internal/cfi's doc
// comment): DWARF register numbering is target-specific, and plumbing it
// through would mean extending the Machine interface again purely for
// diagnostics that nothing in this module consumes yet. Register 0 is
// used as a placeholder CFA base across every ISA.
func (d *Driver) buildCFI(frameSize int, coreMask, fpMask uint32, codeSize int) []byte {
	b := cfi.NewBuilder()
	b.DefCFA(0, 0)
	if frameSize > 0 {
		b.AdjustCFAOffset(frameSize)
	}
	for i := 0; i < 32; i++ {
		if coreMask&(1<<uint(i)) != 0 {
			b.RegisterSpilledAt(i, i*8)
		}
	}
	for i := 0; i < 32; i++ {
		if fpMask&(1<<uint(i)) != 0 {
			b.RegisterSpilledAt(32+i, i*8)
		}
	}
	return b.Patch(codeSize)
}
