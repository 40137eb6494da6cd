package filter

import (
	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/internal/mir"
)

// maxRegsNamespace and maxInsnsCodeUnits are the hard filter's 2^14 gates
// .
const (
	maxRegsNamespace  = 1 << 14
	maxInsnsCodeUnits = 1 << 14
	maxDalvikRegs     = 1<<15 - 1
)

// ISASupport answers the two target-specific hard-filter questions
// without filter needing to import any concrete backend package: whether
// an opcode is on the ISA's per-target unsupported list, and whether a
// shorty contains a character outside the ISA's supported-types string.
type ISASupport interface {
	UnsupportedOpcode(op mir.Opcode) bool
	// SupportedShortyChars returns the allowed shorty character set, or
	// "" to mean "all supported".
	SupportedShortyChars() string
}

// HardFilterResult names which gate rejected, or that the method passed.
type HardFilterResult struct {
	Rejected bool
	Reason   string
}

func pass() HardFilterResult { return HardFilterResult{} }

func reject(reason string) HardFilterResult {
	return HardFilterResult{Rejected: true, Reason: reason}
}

// RunHardFilter applies the must-skip gates before any soft-filter
// statistics are computed: register namespace overflow, then the per-ISA
// shorty check, then per-ISA unsupported opcodes.
func RunHardFilter(code *dex.CodeItem, shorty string, g *mir.Graph, isa ISASupport) HardFilterResult {
	if int(code.RegistersSize) >= maxRegsNamespace || code.InsnsSizeInCodeUnits() >= maxInsnsCodeUnits {
		return reject("registers_size or insns_size_in_code_units overflows the 16-bit SSA namespace")
	}
	if code.NumDalvikRegisters() > maxDalvikRegs {
		return reject("num_dalvik_registers exceeds 2^15-1")
	}
	if isa != nil {
		if r := checkShorty(shorty, isa); r.Rejected {
			return r
		}
		if g != nil {
			it := g.RPO()
			for blk := it.Next(); blk != nil; blk = it.Next() {
				ii := g.Instrs(blk)
				for m := ii.Next(); m != nil; m = ii.Next() {
					if isa.UnsupportedOpcode(m.Opcode) {
						return reject("opcode unsupported on target ISA")
					}
				}
			}
		}
	}
	return pass()
}

func checkShorty(shorty string, isa ISASupport) HardFilterResult {
	allowed := isa.SupportedShortyChars()
	if allowed == "" {
		return pass()
	}
	for _, c := range shorty {
		found := false
		for _, a := range allowed {
			if a == c {
				found = true
				break
			}
		}
		if !found {
			return reject("shorty contains a type unsupported on target ISA")
		}
	}
	return pass()
}
