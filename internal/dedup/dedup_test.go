package dedup

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestInternReturnsSameHandleForByteEqualArtifacts(t *testing.T) {
	table := NewTable()
	a := Artifact{Code: []byte{1, 2, 3}, MappingTable: []byte{9}}
	b := Artifact{Code: []byte{1, 2, 3}, MappingTable: []byte{9}}

	h1, found1 := table.Intern(a, "handle-a")
	h2, found2 := table.Intern(b, "handle-b")

	require.False(t, found1)
	require.True(t, found2)
	require.Equal(t, "handle-a", h1)
	require.Equal(t, "handle-a", h2)
	require.Equal(t, 1, table.Len())
}

func TestInternKeepsDistinctArtifactsSeparate(t *testing.T) {
	table := NewTable()
	a := Artifact{Code: []byte{1, 2, 3}}
	b := Artifact{Code: []byte{1, 2, 4}}

	table.Intern(a, "handle-a")
	_, found := table.Intern(b, "handle-b")

	require.False(t, found)
	require.Equal(t, 2, table.Len())
}

func TestArtifactHashDistinguishesComponentBoundaryShift(t *testing.T) {
	a := Artifact{Code: []byte{1, 2}, MappingTable: []byte{3}}
	b := Artifact{Code: []byte{1}, MappingTable: []byte{2, 3}}

	require.NotEqual(t, a.Hash(), b.Hash())
}

func TestEqualRequiresEveryComponentByteForByte(t *testing.T) {
	a := Artifact{Code: []byte{1}, CFI: []byte{2}}
	b := Artifact{Code: []byte{1}, CFI: []byte{3}}
	require.False(t, a.Equal(b))
}
