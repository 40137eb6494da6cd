package cfi

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestAdvancePCChoosesSmallestForm(t *testing.T) {
	b := NewBuilder()
	b.AdvancePC(4)
	require.Equal(t, []byte{opAdvanceLoc1, 4}, b.buf)

	b2 := NewBuilder()
	b2.AdvancePC(300)
	require.Equal(t, []byte{opAdvanceLoc2, byte(300), byte(300 >> 8)}, b2.buf)

	b4 := NewBuilder()
	b4.AdvancePC(1 << 20)
	require.Equal(t, opAdvanceLoc4, b4.buf[0])
	require.Len(t, b4.buf, 5)
}

func TestAdvancePCIsNoOpForNonPositiveDelta(t *testing.T) {
	b := NewBuilder()
	b.AdvancePC(8)
	n := len(b.buf)
	b.AdvancePC(8)
	b.AdvancePC(4)
	require.Equal(t, n, len(b.buf))
}

func TestPrologueEpilogueSequenceMatchesSpillMask(t *testing.T) {
	b := NewBuilder()
	b.DefCFA(31 /* sp */, 0)

	b.AdvancePC(4)
	b.AdjustCFAOffset(64)
	b.RegisterSpilledAt(19, 56)
	b.RegisterSpilledAt(20, 48)

	b.AdvancePC(56)
	b.RestoreRegister(19)
	b.RestoreRegister(20)
	b.AdjustCFAOffset(0)

	out := b.Patch(60)

	require.Equal(t, 60, b.GetCurrentPC())
	require.True(t, len(out)%4 == 0)
	require.Len(t, b.spilledRow, 0)
}

func TestPatchPadsToFourByteBoundary(t *testing.T) {
	b := NewBuilder()
	b.AdvancePC(1)
	out := b.Patch(1)
	require.True(t, len(out)%4 == 0)
	require.Equal(t, byte(opNop), out[len(out)-1])
}
