package aotcore

import (
	"testing"

	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/internal/backend/isa/arm64"
	"github.com/dexaot/aotcore/internal/mir"
	"github.com/dexaot/aotcore/internal/testing/require"
	"github.com/dexaot/aotcore/verifier"
)

// emptyRegistry is a verifier.Registry with nothing in it: every Lookup
// misses, matching a method the verifier never ran on (e.g. verify-none
// mode, or a test fixture).
type emptyRegistry struct{}

func (emptyRegistry) Lookup(dex.MethodReference) (verifier.VerifiedMethod, bool) { return nil, false }
func (emptyRegistry) ClearVerifiedMethod(dex.MethodReference)                    {}

// returnVoidCode builds the smallest CodeItem the builder can turn into
// a method: a single entry/exit block holding one return-void.
func returnVoidCode() *dex.CodeItem {
	return &dex.CodeItem{
		RegistersSize: 1,
		Insns:         []uint16{uint16(mir.OpReturnVoid)},
	}
}

func TestCompileMethodReturnVoidProducesCode(t *testing.T) {
	d := NewDriver(NewCompilerOptions(), arm64.New(), nil, emptyRegistry{})

	cm, err := d.CompileMethod(dex.FileID(1), returnVoidCode(), 0, dex.InvokeType(0), 0, 0, "V")
	require.NoError(t, err)
	require.True(t, cm != nil)
	require.True(t, len(cm.Code) > 0)
	require.Equal(t, false, cm.Deduplicated)
}

func TestCompileMethodDeduplicatesIdenticalMethods(t *testing.T) {
	d := NewDriver(NewCompilerOptions(), arm64.New(), nil, emptyRegistry{})

	first, err := d.CompileMethod(dex.FileID(1), returnVoidCode(), 0, dex.InvokeType(0), 0, 0, "V")
	require.NoError(t, err)
	require.True(t, first != nil)

	second, err := d.CompileMethod(dex.FileID(1), returnVoidCode(), 0, dex.InvokeType(0), 0, 1, "V")
	require.NoError(t, err)
	require.True(t, second != nil)
	require.True(t, second.Deduplicated)
}

func TestCompileMethodSkippedByVerifyNoneReturnsNil(t *testing.T) {
	opts := NewCompilerOptions()
	opts.Filter = FilterVerifyNone
	d := NewDriver(opts, arm64.New(), nil, emptyRegistry{})

	cm, err := d.CompileMethod(dex.FileID(1), returnVoidCode(), 0, dex.InvokeType(0), 0, 0, "V")
	require.NoError(t, err)
	require.True(t, cm == nil)
}
