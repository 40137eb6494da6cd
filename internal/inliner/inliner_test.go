package inliner

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dexaot/aotcore/dex"
	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestFileInlinerLookup(t *testing.T) {
	fi := newFileInliner(map[uint32]Method{
		5: {Pattern: PatternGetter, FieldOffset: 8},
	})
	m, ok := fi.Lookup(5)
	require.True(t, ok)
	require.Equal(t, PatternGetter, m.Pattern)

	_, ok = fi.Lookup(6)
	require.False(t, ok)
}

func TestMapBuildsLazilyOnce(t *testing.T) {
	var calls int32
	m := NewMap(func(f dex.FileID) map[uint32]Method {
		atomic.AddInt32(&calls, 1)
		return map[uint32]Method{1: {Pattern: PatternNop}}
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fi := m.Get(dex.FileID(0))
			_, ok := fi.Lookup(1)
			require.True(t, ok)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), calls)
}

func TestBoundTryInline(t *testing.T) {
	fi := newFileInliner(map[uint32]Method{42: {Pattern: PatternSetter}})
	b := Bound{
		FileInliner: fi,
		Resolve: func(idx int32) (uint32, bool) {
			if idx == 0 {
				return 42, true
			}
			return 0, false
		},
	}
	require.True(t, b.TryInline(0))
	require.False(t, b.TryInline(1))
}
