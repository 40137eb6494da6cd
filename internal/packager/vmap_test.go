package packager

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestVmapTableRoundTrip(t *testing.T) {
	core := []int{1, 3, 5}
	fp := []int{0, 2}

	buf := BuildVmapTable(core, fp)
	gotCore, gotFP := ReadVmapTable(buf)

	require.Equal(t, core, gotCore)
	require.Equal(t, fp, gotFP)
}

func TestVmapTableWithEmptyCoreHalf(t *testing.T) {
	buf := BuildVmapTable(nil, []int{4})
	gotCore, gotFP := ReadVmapTable(buf)
	require.Nil(t, gotCore)
	require.Equal(t, []int{4}, gotFP)
}

func TestVmapTableWithEmptyFPHalf(t *testing.T) {
	buf := BuildVmapTable([]int{1, 2}, nil)
	gotCore, gotFP := ReadVmapTable(buf)
	require.Equal(t, []int{1, 2}, gotCore)
	require.Nil(t, gotFP)
}
