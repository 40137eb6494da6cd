package filter

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestDecideEverythingAlwaysCompiles(t *testing.T) {
	out := Decide(Input{Mode: ModeEverything, Stats: Stats{DexInstructions: 1_000_000}})
	require.Equal(t, OutcomeCompile, out)
}

func TestDecideVerifyNoneAndInterpretOnlyAlwaysSkip(t *testing.T) {
	require.Equal(t, OutcomeSkip, Decide(Input{Mode: ModeVerifyNone}))
	require.Equal(t, OutcomeSkip, Decide(Input{Mode: ModeInterpretOnly}))
}

func TestDecidePuntOverridesEverythingElse(t *testing.T) {
	out := Decide(Input{Mode: ModeSpeed, PuntToInterpreter: true})
	require.Equal(t, OutcomeSkip, out)
}

func TestDecideHugeWithManyBlocksSkips(t *testing.T) {
	th := DefaultSizeThresholds()
	out := Decide(Input{
		Mode:       ModeBalanced,
		Thresholds: th,
		Stats:      Stats{DexInstructions: th.Huge + 1, BlockCount: th.Huge/2 + 1},
	})
	require.Equal(t, OutcomeSkip, out)
}

func TestDecideLargeWithNoBranchesSkips(t *testing.T) {
	th := DefaultSizeThresholds()
	out := Decide(Input{
		Mode:       ModeBalanced,
		Thresholds: th,
		Stats:      Stats{DexInstructions: th.Large + 1, BranchOps: 0},
	})
	require.Equal(t, OutcomeSkip, out)
}

func TestDecideSpeedModeCompilesUnlessHuge(t *testing.T) {
	th := DefaultSizeThresholds()
	require.Equal(t, OutcomeCompile, Decide(Input{
		Mode: ModeSpeed, Thresholds: th, Stats: Stats{DexInstructions: th.Large + 1, BranchOps: 5},
	}))
	require.Equal(t, OutcomeSkip, Decide(Input{
		Mode: ModeSpeed, Thresholds: th,
		Stats: Stats{DexInstructions: th.Huge + 1, BlockCount: th.Huge/2 + 1},
	}))
}

func TestDecideStaticClassInitSkips(t *testing.T) {
	th := DefaultSizeThresholds()
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats:             Stats{DexInstructions: th.Small + 10},
		IsStaticClassInit: true,
	})
	require.Equal(t, OutcomeSkip, out)
}

func TestDecideSpecialInlinerMatchProducesStub(t *testing.T) {
	th := DefaultSizeThresholds()
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats:                 Stats{DexInstructions: th.Small + 10},
		MatchesSpecialInliner: true,
	})
	require.Equal(t, OutcomeSpecialStub, out)
}

func TestDecideSmallMethodCompiles(t *testing.T) {
	th := DefaultSizeThresholds()
	out := Decide(Input{Mode: ModeBalanced, Thresholds: th, Stats: Stats{DexInstructions: th.Small - 1}})
	require.Equal(t, OutcomeCompile, out)
}

func TestDecideComputationalLoopWithLowHeavyweightRatioCompiles(t *testing.T) {
	th := DefaultSizeThresholds()
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats: Stats{
			DexInstructions:      th.Large + 1,
			BranchOps:            5,
			HasComputationalLoop: true,
			HeavyweightOps:       0,
		},
	})
	require.Equal(t, OutcomeCompile, out)
}

func TestDecideHasSwitchCompiles(t *testing.T) {
	th := DefaultSizeThresholds()
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats: Stats{DexInstructions: th.Large + 1, BranchOps: 5, HasSwitch: true},
	})
	require.Equal(t, OutcomeCompile, out)
}

func TestDecideOtherwiseDefaultsToSizeCutoff(t *testing.T) {
	th := DefaultSizeThresholds()
	// Balanced's default cutoff is Large, so a method past Large with
	// nothing else to recommend it falls through every rule to the
	// size-cutoff default and skips.
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats: Stats{DexInstructions: th.Large + 1, BranchOps: 5},
	})
	require.Equal(t, OutcomeSkip, out)
}

func TestDecideBalancedCompilesBetweenSmallAndLarge(t *testing.T) {
	th := DefaultSizeThresholds()
	// Balanced's default cutoff is Large, not Small, so a method past
	// Small but short of Large reaches the same fallthrough and compiles.
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats: Stats{DexInstructions: th.Small + 5, BranchOps: 5},
	})
	require.Equal(t, OutcomeCompile, out)
}

func TestDecideSpaceModeUsesShiftedCutoffs(t *testing.T) {
	th := DefaultSizeThresholds()
	stats := Stats{DexInstructions: th.Small + 5, BranchOps: 5}

	// Space's small/default cutoffs are Tiny/Small (a tier below
	// Balanced's Small/Large), so the same method that Balanced compiles
	// is past Space's default cutoff and skips.
	require.Equal(t, OutcomeCompile, Decide(Input{Mode: ModeBalanced, Thresholds: th, Stats: stats}))
	require.Equal(t, OutcomeSkip, Decide(Input{Mode: ModeSpace, Thresholds: th, Stats: stats}))
}

func TestDecideHighBranchRatioOnComplexSizedMethodCompiles(t *testing.T) {
	th := DefaultSizeThresholds()
	// Past Small (so "complex sized"), a high branch ratio compiles the
	// method at the branch-ratio row, before the size-cutoff default is
	// reached.
	n := th.Small + 10
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats: Stats{DexInstructions: n, BranchOps: n}, // ratio 1.0
	})
	require.Equal(t, OutcomeCompile, out)
}

func TestDecideHighHeavyweightRatioOnComplexSizedMethodSkips(t *testing.T) {
	th := DefaultSizeThresholds()
	// Past Small (so "complex sized"), a high heavyweight-op ratio skips
	// even though the method hasn't reached Balanced's default cutoff
	// (Large) yet.
	n := th.Small + 10
	out := Decide(Input{
		Mode: ModeBalanced, Thresholds: th,
		Stats: Stats{DexInstructions: n, HeavyweightOps: n}, // ratio 1.0
	})
	require.Equal(t, OutcomeSkip, out)
}
