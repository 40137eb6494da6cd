package regalloc

import (
	"testing"

	"github.com/dexaot/aotcore/internal/testing/require"
)

func TestAllocTempAndFree(t *testing.T) {
	a := NewAllocator(2, 1)
	v1, ok := a.AllocTemp(ClassCore)
	require.True(t, ok)
	v2, ok := a.AllocTemp(ClassCore)
	require.True(t, ok)
	require.NotEqual(t, v1, v2)

	_, ok = a.AllocTemp(ClassCore)
	require.False(t, ok)

	a.FreeTemp(v1)
	v3, ok := a.AllocTemp(ClassCore)
	require.True(t, ok)
	require.Equal(t, v1, v3)
}

func TestClobberCallerSaveOnlyAffectsMarked(t *testing.T) {
	a := NewAllocator(2, 0)
	a.MarkCallerSave(ClassCore, []int{0})
	v0, _ := a.AllocTemp(ClassCore)
	v1, _ := a.AllocTemp(ClassCore)
	require.Equal(t, 0, v0.Index())
	require.Equal(t, 1, v1.Index())

	a.ClobberCallerSave()
	require.False(t, a.Info(v0).InUse)
	require.True(t, a.Info(v1).InUse)
}

func TestLockCallTempsExcludesFromAllocTemp(t *testing.T) {
	a := NewAllocator(2, 0)
	a.LockCallTemps(ClassCore, []int{0})
	v, ok := a.AllocTemp(ClassCore)
	require.True(t, ok)
	require.Equal(t, 1, v.Index())

	a.FreeCallTemps(ClassCore, []int{0})
	v2, ok := a.AllocTemp(ClassCore)
	require.True(t, ok)
	require.Equal(t, 0, v2.Index())
	require.NotEqual(t, v, v2)
}

func TestBuildPromotionMapPrefersHigherScore(t *testing.T) {
	pm := BuildPromotionMap([]VregActivity{
		{Vreg: 1, Score: 5, Class: ClassCore},
		{Vreg: 2, Score: 10, Class: ClassCore},
		{Vreg: 3, Score: 1, Class: ClassCore},
	}, 2, 0)

	_, ok := pm.Lookup(2)
	require.True(t, ok)
	_, ok = pm.Lookup(1)
	require.True(t, ok)
	_, ok = pm.Lookup(3)
	require.False(t, ok)
}

func TestBuildPromotionMapSeparatesClasses(t *testing.T) {
	pm := BuildPromotionMap([]VregActivity{
		{Vreg: 1, Score: 9, Class: ClassFP},
		{Vreg: 2, Score: 9, Class: ClassCore},
	}, 1, 1)

	v1, _ := pm.Lookup(1)
	v2, _ := pm.Lookup(2)
	require.Equal(t, ClassFP, v1.Class())
	require.Equal(t, ClassCore, v2.Class())
}
