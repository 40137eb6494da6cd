package filter

// Input bundles everything the decision matrix reads beyond
// the Stats aggregate: the filter mode, size thresholds, and the three
// booleans contributed by earlier pipeline stages (a pass's
// PuntToInterpreter flag, the method's own static-initializer-ness, and
// whether special-method-inlining already matched a canned pattern on
// this exact method, not just one of its call sites).
type Input struct {
	Mode       Mode
	Thresholds SizeThresholds
	Stats      Stats

	PuntToInterpreter     bool
	IsStaticClassInit     bool
	MatchesSpecialInliner bool
}

func sizeClass(n int, t SizeThresholds) (tiny, small, large, huge bool) {
	switch {
	case n < t.Tiny:
		tiny = true
	case n < t.Small:
		small = true
	case n < t.Large:
	// mid-range: neither small nor large per the historical ART
	// thresholds (small_cutoff <= n < large_cutoff is "medium").
	case n < t.Huge:
		large = true
	default:
		huge = true
	}
	return
}

// cutoffsForMode picks the "small, just compile" and "size >= cutoff,
// default to skip" instruction-count cutoffs for mode. Balanced compiles
// anything under Small and defaults to skip past Large; Space shifts
// both cutoffs down a tier (Tiny/Small) for a more skip-happy policy;
// Speed and Time only ever treat Huge methods as skip candidates.
func cutoffsForMode(mode Mode, t SizeThresholds) (smallCutoff, defaultCutoff int) {
	switch mode {
	case ModeSpace:
		return t.Tiny, t.Small
	case ModeSpeed, ModeTime:
		return t.Huge, t.Huge
	default: // ModeBalanced
		return t.Small, t.Large
	}
}

// Decide evaluates the ordered decision matrix of the table and
// returns its terminal Outcome. Rows are checked top to bottom exactly
// in order; the first matching row wins.
func Decide(in Input) Outcome {
	if in.Mode == ModeEverything {
		return OutcomeCompile
	}
	if in.Mode == ModeVerifyNone || in.Mode == ModeInterpretOnly {
		return OutcomeSkip
	}
	if in.PuntToInterpreter {
		return OutcomeSkip
	}

	_, _, large, huge := sizeClass(in.Stats.DexInstructions, in.Thresholds)
	smallCutoff, defaultCutoff := cutoffsForMode(in.Mode, in.Thresholds)

	// skipDefault is the size-cutoff fallback the later rules can only
	// override, never worsen: true once the method's instruction count
	// reaches this mode's default cutoff, forced true outright for a
	// huge method regardless of cutoff.
	skipDefault := in.Stats.DexInstructions >= defaultCutoff

	switch {
	case huge:
		skipDefault = true
		if in.Stats.BlockCount > in.Thresholds.Huge/2 {
			return OutcomeSkip
		}
	case large && in.Stats.BranchOps == 0:
		return OutcomeSkip
	case in.Mode == ModeSpeed:
		return OutcomeCompile
	}

	if in.IsStaticClassInit {
		return OutcomeSkip
	}
	if in.MatchesSpecialInliner {
		return OutcomeSpecialStub
	}
	if in.Stats.DexInstructions < smallCutoff {
		return OutcomeCompile
	}

	// complexSized reports whether the method exceeds the (mode-independent)
	// small-method threshold: large enough that branch or heavyweight-op
	// density, not raw size, should decide whether compiling it pays
	// off.
	complexSized := in.Stats.DexInstructions > in.Thresholds.Small

	if in.Stats.HasComputationalLoop && in.Stats.HeavyweightRatio() < heavyweightRatioLow {
		return OutcomeCompile
	}
	if complexSized && in.Stats.BranchRatio() > branchRatioHigh {
		return OutcomeCompile
	}
	if in.Stats.FPRatio() > fpRatioHigh || in.Stats.MathRatio() > mathRatioHigh ||
		in.Stats.ArrayRatio() > arrayRatioHigh || in.Stats.HasSwitch {
		return OutcomeCompile
	}
	if complexSized && in.Stats.HeavyweightRatio() > heavyweightRatioHigh {
		return OutcomeSkip
	}
	if skipDefault {
		return OutcomeSkip
	}
	return OutcomeCompile
}
