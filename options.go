package aotcore

import "github.com/dexaot/aotcore/internal/filter"

// FilterMode selects the compilation policy of the decision
// matrix. It is read-only configuration, set once by the driver. The
// canonical enum lives in internal/filter (the package that actually
// implements the decision matrix); this is a type alias so callers of
// the public API never need to import an internal package just to name
// a filter mode.
type FilterMode = filter.Mode

const (
	FilterVerifyNone    = filter.ModeVerifyNone
	FilterInterpretOnly = filter.ModeInterpretOnly
	FilterSpace         = filter.ModeSpace
	FilterBalanced      = filter.ModeBalanced
	FilterSpeed         = filter.ModeSpeed
	FilterTime          = filter.ModeTime
	FilterEverything    = filter.ModeEverything
)

// InstructionSet selects the backend.
type InstructionSet uint8

const (
	ISAThumb2 InstructionSet = iota
	ISAArm64
	ISAX86
	ISAX86_64
	ISAMips32
)

func (i InstructionSet) String() string {
	switch i {
	case ISAThumb2:
		return "thumb2"
	case ISAArm64:
		return "arm64"
	case ISAX86:
		return "x86"
	case ISAX86_64:
		return "x86_64"
	case ISAMips32:
		return "mips32"
	default:
		return "unknown"
	}
}

// Is64Bit reports whether the ISA uses a 64-bit vreg namespace and 8-byte
// arena/stack alignment.
func (i InstructionSet) Is64Bit() bool {
	return i == ISAArm64 || i == ISAX86_64
}

// InstructionSetFeatures is a small bitset of ISA feature flags.
type InstructionSetFeatures uint32

const (
	FeatureDiv InstructionSetFeatures = 1 << iota
	FeatureLPAE
	FeatureARMv8CRC
	FeatureSSE4
	FeatureAVX
	FeaturePopcnt
)

func (f InstructionSetFeatures) Has(bit InstructionSetFeatures) bool { return f&bit != 0 }

// MethodSizeThresholds are the decision matrix's dex-instruction-count
// cutoffs. The default cutoffs (filter.DefaultSizeThresholds) live
// in internal/filter exactly once; this is a type alias for the same reason FilterMode
// is.
type MethodSizeThresholds = filter.SizeThresholds

// DefaultMethodSizeThresholds mirrors the historical ART defaults.
func DefaultMethodSizeThresholds() MethodSizeThresholds {
	return filter.DefaultSizeThresholds()
}

// CompilerOptions is the read-only configuration table the driver hands
// the core once per compilation. It is
// constructed once by the driver and never mutated by the core.
type CompilerOptions struct {
	Filter     FilterMode
	Thresholds MethodSizeThresholds

	InlineDepthLimit            int
	InlineMaxCodeUnits          int
	IncludePatchInfo            bool
	GenerateDebugInfo           bool
	ImplicitNullChecks          bool
	ImplicitStackOverflowChecks bool
	CompilePIC                  bool
	TopKProfileThreshold        float64

	VerboseMethods  []string
	DumpPasses      bool
	DumpStats       bool
	DumpCFGFileName string

	InstructionSet         InstructionSet
	InstructionSetFeatures InstructionSetFeatures

	// DedupEnabled disables the packager's process-wide dedup table when
	// false.
	DedupEnabled bool
}

// NewCompilerOptions returns options with the documented defaults:
// Balanced filter, dedup on, implicit checks on (the common AOT
// configuration).
func NewCompilerOptions() *CompilerOptions {
	return &CompilerOptions{
		Filter:                      FilterBalanced,
		Thresholds:                  DefaultMethodSizeThresholds(),
		InlineDepthLimit:            3,
		InlineMaxCodeUnits:          32,
		IncludePatchInfo:            true,
		ImplicitNullChecks:          true,
		ImplicitStackOverflowChecks: true,
		DedupEnabled:                true,
		InstructionSet:              ISAArm64,
	}
}

// IsVerboseMethod reports whether name matches (substring) any entry of
// VerboseMethods.
func (o *CompilerOptions) IsVerboseMethod(name string) bool {
	for _, v := range o.VerboseMethods {
		if v != "" && contains(name, v) {
			return true
		}
	}
	return false
}

func contains(haystack, needle string) bool {
	if len(needle) == 0 {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
