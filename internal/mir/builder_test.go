package mir

import (
	"testing"

	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestBuildReturnVoidIsOneBlockToExit(t *testing.T) {
	code := &dex.CodeItem{RegistersSize: 1, Insns: []uint16{uint16(OpReturnVoid)}}
	g := NewGraph()
	NewBuilder(g, code).Build()

	require.Equal(t, 3, g.NumBlocks()) // entry, the one code block, exit
	entry := g.Block(g.EntryID)
	require.Equal(t, 1, len(entry.Successors))
	body := g.Block(entry.FallThrough)
	require.Equal(t, BlockDalvikByteCode, body.Type)
	require.Equal(t, g.ExitID, body.Taken)
}

// TestBuildBranchSplitsIntoTakenAndFallThroughBlocks builds:
//
//	pc0: if-eq v0, v1, +5   (falls to pc4, branches to pc5)
//	pc4: return-void
//	pc5: return-void
func TestBuildBranchSplitsIntoTakenAndFallThroughBlocks(t *testing.T) {
	code := &dex.CodeItem{
		RegistersSize: 2,
		Insns: []uint16{
			uint16(OpIfEq), 0, 1, 5,
			uint16(OpReturnVoid),
			uint16(OpReturnVoid),
		},
	}
	g := NewGraph()
	NewBuilder(g, code).Build()

	// entry, exit, if-block, fallthrough-return, taken-return.
	require.Equal(t, 5, g.NumBlocks())

	entry := g.Block(g.EntryID)
	ifBlock := g.Block(entry.FallThrough)
	require.Equal(t, uint32(0), ifBlock.StartOffset)
	require.Equal(t, 2, len(ifBlock.Successors))

	taken := g.Block(ifBlock.Taken)
	fall := g.Block(ifBlock.FallThrough)
	require.Equal(t, uint32(5), taken.StartOffset)
	require.Equal(t, uint32(4), fall.StartOffset)
	require.Equal(t, g.ExitID, taken.Taken)
	require.Equal(t, g.ExitID, fall.Taken)
}

func TestBuildCatchHandlerStartsOwnCatchBlock(t *testing.T) {
	code := &dex.CodeItem{
		RegistersSize: 1,
		Insns: []uint16{
			uint16(OpReturnVoid),
			uint16(OpMoveException), 0,
		},
		Handlers: []dex.CatchHandler{{Addr: 1}},
	}
	g := NewGraph()
	NewBuilder(g, code).Build()

	handlerID, ok := g.CatchEntries[1]
	require.True(t, ok)
	handler := g.Block(handlerID)
	require.Equal(t, BlockCatch, handler.Type)
}
