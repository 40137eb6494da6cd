package packager

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := QuickMethodHeader{
		MappingTableOffset: 40,
		VmapTableOffset:    20,
		FrameSize:          64,
		CoreSpillMask:      0x0f,
		FPSpillMask:        0x3,
		CodeSize:           128,
	}
	got := DecodeHeader(h.Encode())
	require.Equal(t, h, got)
}

func TestAlignCodeOffsetRoundsUpPerISA(t *testing.T) {
	require.Equal(t, 2, AlignCodeOffset("arm", 1))
	require.Equal(t, 0, AlignCodeOffset("arm", 0))
	require.Equal(t, 16, AlignCodeOffset("arm64", 1))
	require.Equal(t, 32, AlignCodeOffset("amd64", 17))
}
