package arm

import (
	"testing"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/mir"
	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestUnsupportedOpcodeRejectsFillArrayData(t *testing.T) {
	m := New()
	require.True(t, m.UnsupportedOpcode(mir.OpFillArrayData))
	require.False(t, m.UnsupportedOpcode(mir.OpAdd))
}

func TestShortBranchEnlargesWhenOutOfRange(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	br := m.EmitUnconditionalBranch(g, backend.InvalidLIRID)
	lbl := g.Append(backend.LIROpLabel, nil)
	lbl.NativeOffset = branch16RangeBytes + 100
	br.Target = lbl.ID()

	_, ok := m.Encode(g, br, 0, true)
	require.False(t, ok)

	m.EnlargeBranch(br)
	enc, ok := m.Encode(g, br, 0, true)
	require.True(t, ok)
	require.Equal(t, 4, enc.Length)
}
