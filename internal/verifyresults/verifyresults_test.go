package verifyresults

import (
	"testing"

	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/internal/testing/require"
	"github.com/dexaot/aotcore/verifier"
)

type fakeRegistry struct {
	vm      verifier.VerifiedMethod
	cleared []dex.MethodReference
}

func (f *fakeRegistry) Lookup(m dex.MethodReference) (verifier.VerifiedMethod, bool) {
	if f.vm == nil {
		return nil, false
	}
	return f.vm, true
}

func (f *fakeRegistry) ClearVerifiedMethod(m dex.MethodReference) {
	f.cleared = append(f.cleared, m)
}

func TestSessionFetchCachesAndRelease(t *testing.T) {
	vm := verifier.NewStatic(map[uint32]bool{1: true}, nil, nil)
	reg := &fakeRegistry{vm: vm}
	ref := dex.MethodReference{File: 1, Index: 7}

	s := NewSession(reg, ref)
	got, ok := s.Fetch()
	require.True(t, ok)
	require.Equal(t, vm, got)

	got2, ok2 := s.Fetch()
	require.True(t, ok2)
	require.Equal(t, vm, got2)

	s.Release()
	require.Len(t, reg.cleared, 1)
	require.Equal(t, ref, reg.cleared[0])
}

func TestSessionFetchMissing(t *testing.T) {
	reg := &fakeRegistry{}
	s := NewSession(reg, dex.MethodReference{File: 1, Index: 2})
	_, ok := s.Fetch()
	require.False(t, ok)
}
