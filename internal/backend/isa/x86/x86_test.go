package x86

import (
	"testing"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestShortJumpEnlargesToNearForm(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	br := m.EmitUnconditionalBranch(g, backend.InvalidLIRID)
	lbl := g.Append(backend.LIROpLabel, nil)
	lbl.NativeOffset = 10000
	br.Target = lbl.ID()

	_, ok := m.Encode(g, br, 0, true)
	require.False(t, ok)

	m.EnlargeBranch(br)
	enc, ok := m.Encode(g, br, 0, true)
	require.True(t, ok)
	require.Equal(t, 5, enc.Length)
}

func TestOnlyEaxIsAnArgRegister(t *testing.T) {
	m := New()
	require.Equal(t, []int{0}, m.ArgRegsCore())
}
