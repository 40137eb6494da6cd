// Package dedup implements the process-wide deduplication table:
// "A process-wide table maps hash(code_bytes ∪ maps ∪ patches) →
// existing CompiledMethod*. On insertion, a candidate hashes identically
// only if every component is byte-for-byte equal; in that case the
// duplicate is returned and the new allocation is freed." The content-
// addressed-by-sha256 idea is grounded directly on wazero's
// internal/compilationcache.Cache, whose Key is likewise a
// [sha256.Size]byte computed over a compiled artifact's bytes; this
// package is the in-process analogue (no Get/Add/Delete I/O boundary,
// just an interning map) since the dedup table never leaves the
// driver's address space.
package dedup

import (
	"crypto/sha256"
	"sync"
)

// Key is the content hash identifying one interned artifact.
type Key = [sha256.Size]byte

// Artifact is the subset of a CompiledMethod's fields dedup compares and
// hashes over. Field
// order matters for Hash's stability but not for correctness, since the
// same caller always serializes the same way.
type Artifact struct {
	Code          []byte
	MappingTable  []byte
	VmapTable     []byte
	GCMap         []byte
	CFI           []byte
	LinkerPatches []byte
}

// Hash computes this artifact's dedup key by hashing its components in a
// fixed order, each length-prefixed so that e.g. a code/mapping-table
// boundary shift can never produce a hash collision between two
// genuinely different artifacts.
func (a Artifact) Hash() Key {
	h := sha256.New()
	for _, part := range [][]byte{a.Code, a.MappingTable, a.VmapTable, a.GCMap, a.CFI, a.LinkerPatches} {
		var lenBuf [8]byte
		n := uint64(len(part))
		for i := 0; i < 8; i++ {
			lenBuf[i] = byte(n >> (8 * i))
		}
		h.Write(lenBuf[:])
		h.Write(part)
	}
	var out Key
	copy(out[:], h.Sum(nil))
	return out
}

// Equal reports whether a and b are byte-for-byte identical in every
// component.
func (a Artifact) Equal(b Artifact) bool {
	return bytesEqual(a.Code, b.Code) &&
		bytesEqual(a.MappingTable, b.MappingTable) &&
		bytesEqual(a.VmapTable, b.VmapTable) &&
		bytesEqual(a.GCMap, b.GCMap) &&
		bytesEqual(a.CFI, b.CFI) &&
		bytesEqual(a.LinkerPatches, b.LinkerPatches)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Entry is one interned artifact plus the opaque handle its caller
// associates with it (in this project, a *backend.CompiledMethod-shaped
// pointer; dedup itself stays generic over that type via interface{} so
// it doesn't need to import the packager package).
type Entry struct {
	Artifact Artifact
	Handle   interface{}
}

// Table is the process-wide dedup table: one Table is constructed at
// driver initialization and lives for the driver's whole lifetime, torn
// down only at driver teardown.
type Table struct {
	mu      sync.Mutex
	entries map[Key][]Entry
}

// NewTable builds an empty dedup table.
func NewTable() *Table {
	return &Table{entries: map[Key][]Entry{}}
}

// Intern looks up art's hash bucket for a byte-equal existing entry; if
// found, returns its Handle and found=true so the caller can discard its
// freshly built candidate. Otherwise it records handle under art's hash
// and returns (handle, false). Bucket collisions (same hash, different
// bytes) are resolved by linear scan within the bucket, matching the
// byte-for-byte equality requirement on top of the hash.
func (t *Table) Intern(art Artifact, handle interface{}) (interface{}, bool) {
	key := art.Hash()
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries[key] {
		if e.Artifact.Equal(art) {
			return e.Handle, true
		}
	}
	t.entries[key] = append(t.entries[key], Entry{Artifact: art, Handle: handle})
	return handle, false
}

// Len returns the number of distinct interned artifacts, for tests and
// diagnostics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, bucket := range t.entries {
		n += len(bucket)
	}
	return n
}
