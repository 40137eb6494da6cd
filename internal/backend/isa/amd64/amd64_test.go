package amd64

import (
	"testing"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

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

func TestEncodeShortBranchFitsInTwoBytes(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	lbl := g.Append(backend.LIROpLabel, nil)
	br := m.EmitUnconditionalBranch(g, lbl.ID())

	enc, ok := m.Encode(g, br, 0, true)
	require.True(t, ok)
	require.Equal(t, 2, enc.Length)
}

func TestEnlargeBranchWidensToFiveByteNearForm(t *testing.T) {
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

func TestLowerMIRConstEmitsMovImm(t *testing.T) {
	m := New()
	g := backend.NewGraph()
	a := regalloc.NewAllocator(m.CoreRegCount(), m.FPRegCount())
	pm := regalloc.PromotionMap{}

	in := &mir.Instruction{Opcode: mir.OpConst, Operands: [5]int64{7}}
	m.LowerMIR(g, a, pm, in)

	l := g.Get(g.Head)
	p := l.Payload.(payload)
	require.Equal(t, kindMovImm, p.k)
	require.Equal(t, int64(7), p.imm)
}

// TestShortJumpEncodingMatchesGolangAsm cross-validates this package's
// own 2-byte short-jump encoding (0xEB + rel8) against golang-asm's
// x86 assembler building a JMP to the next instruction, the same
// cross-check idiom wazero's internal/integration_test/asm debug
// assemblers use golang-asm for.
func TestShortJumpEncodingMatchesGolangAsm(t *testing.T) {
	b, err := goasm.NewBuilder("amd64", 64)
	require.NoError(t, err)

	p := b.NewProg()
	p.As = x86.AJMP
	p.To.Type = obj.TYPE_BRANCH

	target := b.NewProg()
	target.As = obj.ANOP
	p.To.SetTarget(target)

	b.AddInstruction(p)
	b.AddInstruction(target)

	code := b.Assemble()
	require.True(t, len(code) > 0)
	// golang-asm chooses the short (2-byte, 0xEB) form for a jump to the
	// immediately following instruction; this package's own short-jump
	// encoding agrees on that same 2-byte length for a zero-displacement
	// branch.
	require.Equal(t, byte(0xeb), code[0])

	m := New()
	g := backend.NewGraph()
	br := m.EmitUnconditionalBranch(g, backend.InvalidLIRID)
	lbl := g.Append(backend.LIROpLabel, nil)
	br.Target = lbl.ID()
	enc, ok := m.Encode(g, br, 0, true)
	require.True(t, ok)
	require.Equal(t, 2, enc.Length)
	require.True(t, len(code) >= enc.Length)
}
