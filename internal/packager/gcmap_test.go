package packager

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestGCMapRoundTrip(t *testing.T) {
	entries := []GCMapEntry{
		{NativePC: 8, RefBits: []bool{true, false}},
		{NativePC: 24, RefBits: []bool{true, true}},
	}
	data, width := BuildGCMap(entries, 1)
	require.Equal(t, 2, width) // ceil((1+8)/8) == 2

	got := ReadGCMap(data, width)
	require.Equal(t, 2, len(got))
	require.Equal(t, 8, got[0].NativePC)
	require.True(t, got[0].RefBits[0])
	require.False(t, got[0].RefBits[1])
	require.Equal(t, 24, got[1].NativePC)
	require.True(t, got[1].RefBits[0])
	require.True(t, got[1].RefBits[1])
}

// TestReferenceGCMapCorrectness checks a two-safepoint worked example:
// the first safepoint has only vreg 0 live as a reference, the second
// has vregs 0 and 1 both live.
func TestReferenceGCMapCorrectness(t *testing.T) {
	entries := []GCMapEntry{
		{NativePC: 16, RefBits: []bool{true}},
		{NativePC: 32, RefBits: []bool{true, true}},
	}
	data, width := BuildGCMap(entries, 1)
	got := ReadGCMap(data, width)

	require.True(t, got[0].RefBits[0])
	require.True(t, got[1].RefBits[0])
	require.True(t, got[1].RefBits[1])
}
