package hostabi

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestRegionSizeRoundsUpToPageMultiple(t *testing.T) {
	page := PageSize()
	require.True(t, page > 0)

	got := RegionSize(page + 1)
	require.Equal(t, 0, got%page)
	require.True(t, got >= page+1)
}

func TestRegionSizeExactMultipleUnchanged(t *testing.T) {
	page := PageSize()
	require.Equal(t, page*4, RegionSize(page*4))
}
