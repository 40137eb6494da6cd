package mips32

import (
	"testing"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/mir"
	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestUnsupportedOpcodeRejectsMonitorOps(t *testing.T) {
	m := New()
	require.True(t, m.UnsupportedOpcode(mir.OpMonitorEnter))
	require.True(t, m.UnsupportedOpcode(mir.OpMonitorExit))
	require.False(t, m.UnsupportedOpcode(mir.OpAdd))
}

func TestBranchEnlargesToAbsoluteJump(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	br := m.EmitUnconditionalBranch(g, backend.InvalidLIRID)
	lbl := g.Append(backend.LIROpLabel, nil)
	lbl.NativeOffset = branch16WordRange*4 + 4000
	br.Target = lbl.ID()

	_, ok := m.Encode(g, br, 0, true)
	require.False(t, ok)

	m.EnlargeBranch(br)
	enc, ok := m.Encode(g, br, 0, true)
	require.True(t, ok)
	require.Equal(t, 12, enc.Length)
}
