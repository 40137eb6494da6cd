package packager

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestMappingTableRoundTrip(t *testing.T) {
	safepoints := []SafepointEntry{{NativePC: 4, DexPC: 2}, {NativePC: 12, DexPC: 5}, {NativePC: 20, DexPC: 5}}
	catches := []CatchEntry{{DexPC: 10, NativePC: 40}, {DexPC: 30, NativePC: 80}}

	buf := BuildMappingTable(safepoints, catches)
	gotSP, gotC := ReadMappingTable(buf)

	require.Equal(t, safepoints, gotSP)
	require.Equal(t, catches, gotC)
}

func TestEmptyMappingTableRoundTrips(t *testing.T) {
	buf := BuildMappingTable(nil, nil)
	sp, c := ReadMappingTable(buf)
	require.Nil(t, sp)
	require.Nil(t, c)
}
