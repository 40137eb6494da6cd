package mir

import "github.com/dexaot/aotcore/dex"

// FieldLoweringCache is the per-method field-resolution cache. Instance
// and static fields share one slice in first-seen order; duplicates
// collapse to the first entry's index, and every index stored in an MIR
// Meta is guaranteed to be less than the cache's current size.
type FieldLoweringCache struct {
	entries []FieldLoweringEntry
	front   int // number of instance-field entries recorded
	back    int // number of static-field entries recorded
	byKey   map[uint32]int32
}

// FieldLoweringEntry is one resolved (or still-unresolved) field access
// site.
type FieldLoweringEntry struct {
	Key       uint32 // high bit = quickened, low bits = dex field idx or mir offset
	IsStatic  bool
	Quickened bool
	Resolved  bool
	FieldIdx  uint32
	MIROffset int64 // valid only when Quickened
}

func newFieldLoweringCache() FieldLoweringCache {
	return FieldLoweringCache{byKey: map[uint32]int32{}}
}

func (c *FieldLoweringCache) reset() {
	c.entries = c.entries[:0]
	c.front, c.back = 0, 0
	for k := range c.byKey {
		delete(c.byKey, k)
	}
}

// fieldKey builds the 32-bit cache key: "For quickened variants
// the high bit of the key flags 'from dequickening'; the low bits hold
// the mir's dex offset or the raw field index."
func fieldKey(fieldIdx uint16, quickened bool, mirOffset int64) uint32 {
	low := uint32(fieldIdx)
	if quickened {
		low = uint32(mirOffset) & 0x7fffffff
		return low | 0x80000000
	}
	return low & 0x7fffffff
}

// Insert records one field-access site and returns its cache index.
// Instance and static fields are appended to the same backing slice in
// first-seen order, both via a single Insert entry point.
func (c *FieldLoweringCache) Insert(fieldIdx int64, isStatic, quickened bool, mirOffset int64) int32 {
	key := fieldKey(uint16(fieldIdx), quickened, mirOffset)
	if idx, ok := c.byKey[key]; ok {
		return idx
	}
	entry := FieldLoweringEntry{Key: key, IsStatic: isStatic, Quickened: quickened, FieldIdx: uint32(fieldIdx), MIROffset: mirOffset}
	idx := int32(len(c.entries))
	c.entries = append(c.entries, entry)
	if isStatic {
		c.back++
	} else {
		c.front++
	}
	c.byKey[key] = idx
	return idx
}

// Size is the number of distinct field sites recorded.
func (c *FieldLoweringCache) Size() int { return len(c.entries) }

// Get resolves a cache index back to its entry.
func (c *FieldLoweringCache) Get(idx int32) *FieldLoweringEntry { return &c.entries[idx] }

// Resolve marks entry idx as resolved against the external class linker
// .
func (c *FieldLoweringCache) Resolve(idx int32, resolved bool) {
	c.entries[idx].Resolved = resolved
}

// MethodLoweringCache is the per-site cache described by "Method
// lowering cache": an ordered map keyed by
// (target_method_idx, invoke_type, vtable_idx, devirt_target?), whose
// value is the sequential index assigned to the invoke MIR's
// meta.method_lowering_info.
type MethodLoweringCache struct {
	entries []MethodLoweringEntry
	byKey   map[methodKey]int32
}

type methodKey struct {
	targetIdx uint32
	invoke    dex.InvokeType
	vtable    int32
	devirt    dex.MethodReference
	hasDevirt bool
}

// MethodLoweringEntry is one resolved (or unresolved) call site.
type MethodLoweringEntry struct {
	TargetMethodIdx uint32
	Invoke          dex.InvokeType
	VTableIndex     int32
	Devirt          dex.MethodReference
	HasDevirt       bool
	Quickened       bool
	Resolved        bool
}

func newMethodLoweringCache() MethodLoweringCache {
	return MethodLoweringCache{byKey: map[methodKey]int32{}}
}

func (c *MethodLoweringCache) reset() {
	c.entries = c.entries[:0]
	for k := range c.byKey {
		delete(c.byKey, k)
	}
}

// Insert records one invoke site (without a devirt target yet; call
// SetDevirt once the verifier's devirt map has been consulted) and
// returns its cache index, or the index of an existing identical entry.
func (c *MethodLoweringCache) Insert(targetIdx uint32, invoke dex.InvokeType, quickened bool) int32 {
	key := methodKey{targetIdx: targetIdx, invoke: invoke, vtable: -1}
	if idx, ok := c.byKey[key]; ok {
		return idx
	}
	c.entries = append(c.entries, MethodLoweringEntry{
		TargetMethodIdx: targetIdx, Invoke: invoke, VTableIndex: -1, Quickened: quickened,
	})
	idx := int32(len(c.entries) - 1)
	c.byKey[key] = idx
	return idx
}

// SetDevirt records the external verifier's devirtualization hint for
// entry idx.
func (c *MethodLoweringCache) SetDevirt(idx int32, target dex.MethodReference) {
	c.entries[idx].Devirt = target
	c.entries[idx].HasDevirt = true
}

// SetVTableIndex records the resolved vtable slot for a virtual call.
func (c *MethodLoweringCache) SetVTableIndex(idx int32, vtable int32) {
	c.entries[idx].VTableIndex = vtable
}

func (c *MethodLoweringCache) Resolve(idx int32, resolved bool) {
	c.entries[idx].Resolved = resolved
}

// Size is the number of distinct call sites recorded.
func (c *MethodLoweringCache) Size() int { return len(c.entries) }

// Get resolves a cache index back to its entry.
func (c *MethodLoweringCache) Get(idx int32) *MethodLoweringEntry { return &c.entries[idx] }
