package arm64

import (
	"testing"

	"github.com/dexaot/aotcore/internal/backend"
	"github.com/dexaot/aotcore/internal/backend/regalloc"
	"github.com/dexaot/aotcore/internal/mir"
	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestRegisterFileSizesMatchAllocator(t *testing.T) {
	m := New()
	a := regalloc.NewAllocator(m.CoreRegCount(), m.FPRegCount())
	for range m.ArgRegsCore() {
		_, ok := a.AllocTemp(regalloc.ClassCore)
		require.True(t, ok)
	}
}

func TestEncodeShortBranchFitsDirectly(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	lbl := g.Append(backend.LIROpLabel, nil)
	br := m.EmitUnconditionalBranch(g, lbl.ID())

	enc, ok := m.Encode(g, br, 0, true)
	require.True(t, ok)
	require.Equal(t, 4, enc.Length)
}

func TestEnlargeBranchWidensToTwelveBytes(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	br := m.EmitUnconditionalBranch(g, backend.InvalidLIRID)
	lbl := g.Append(backend.LIROpLabel, nil)
	lbl.NativeOffset = directBranchWords*4 + 4000
	br.Target = lbl.ID()

	_, ok := m.Encode(g, br, 0, true)
	require.False(t, ok)

	m.EnlargeBranch(br)
	enc, ok := m.Encode(g, br, 0, true)
	require.True(t, ok)
	require.Equal(t, 12, enc.Length)
}

func TestLowerMIRConstEmitsMovImm(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	a := regalloc.NewAllocator(m.CoreRegCount(), m.FPRegCount())
	pm := regalloc.PromotionMap{}

	in := &mir.Instruction{Opcode: mir.OpConst, Operands: [5]int64{42}}
	m.LowerMIR(g, a, pm, in)

	require.Equal(t, backend.LIRID(0), g.Head)
	l := g.Get(g.Head)
	p := l.Payload.(payload)
	require.Equal(t, kindMovImm, p.k)
	require.Equal(t, int64(42), p.imm)
}

func TestISASupportAcceptsEverything(t *testing.T) {
	m := New()
	require.False(t, m.UnsupportedOpcode(mir.OpAdd))
	require.Equal(t, "", m.SupportedShortyChars())
}
