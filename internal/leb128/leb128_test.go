package leb128

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestUleb128RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40} {
		b := AppendUleb128(nil, v)
		got, n := ReadUleb128(b)
		require.Equal(t, v, got)
		require.Equal(t, len(b), n)
	}
}

func TestSleb128RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 63, -64, 64, -65, 1 << 20, -(1 << 20)} {
		b := AppendSleb128(nil, v)
		got, n := ReadSleb128(b)
		require.Equal(t, v, got)
		require.Equal(t, len(b), n)
	}
}

func TestUleb128SmallValuesFitOneByte(t *testing.T) {
	require.Equal(t, 1, len(AppendUleb128(nil, 127)))
	require.Equal(t, 2, len(AppendUleb128(nil, 128)))
}
