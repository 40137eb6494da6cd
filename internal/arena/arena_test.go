package arena

import (
	"testing"
	"unsafe"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

func TestAllocZeroSizeReturnsUniqueAddress(t *testing.T) {
	a := New(8)
	p1 := a.Alloc(0, KindGeneric)
	p2 := a.Alloc(0, KindGeneric)
	require.NotNil(t, p1)
	require.NotNil(t, p2)
	require.True(t, &p1[0] != &p2[0])
}

func TestAllocAlignment(t *testing.T) {
	a := New(8)
	_ = a.Alloc(1, KindGeneric)
	p := a.Alloc(8, KindGeneric)
	addr := uintptrOf(p)
	require.Equal(t, uintptr(0), addr%8)
}

func TestAllocSpansRegions(t *testing.T) {
	a := New(8)
	big := a.Alloc(regionSize*2, KindGeneric)
	require.Equal(t, regionSize*2, len(big))
	for i := range big {
		big[i] = 0xAB
	}
	for _, b := range big {
		require.Equal(t, byte(0xAB), b)
	}
}

func TestResetReusesRegions(t *testing.T) {
	a := New(8)
	_ = a.Alloc(1024, KindGeneric)
	allocated, regions := a.Stats()
	require.True(t, allocated > 0)
	a.Reset()
	allocated, _ = a.Stats()
	require.Equal(t, int64(0), allocated)
	_, regions2 := a.Stats()
	require.Equal(t, regions, regions2)
}

func TestPeakBytesSurvivesReset(t *testing.T) {
	a := New(8)
	_ = a.Alloc(4096, KindGeneric)
	peak := a.PeakBytes()
	require.True(t, peak >= 4096)
	a.Reset()
	require.Equal(t, peak, a.PeakBytes())
}
