// Package inliner implements the per-dex-file "special method" inliner
// of the decision matrix row "matches an inliner special pattern
// -> compile as canned stub", grounded on ART's own
// DexFileMethodInliner / DexFileToMethodInlinerMap split (original
// source: compiler/dex/quick/dex_file_method_inliner.h and
// dex_file_to_method_inliner_map.h): one inliner instance per dex file,
// built lazily on first use and shared read-only afterward, with the
// map from dex file to inliner guarded by a reader-writer lock since
// many worker goroutines probe it concurrently and only the first
// touch of a given dex file writes.
package inliner

import (
	"sync"

	"github.com/dexaot/aotcore/dex"
)

// Pattern is one of the canned recognizable method shapes this project
// special-cases: "Nop, Return{Void,Arg}, Getter, Setter", a
// simplification of ART's much larger InlineMethodOpcode family (the
// full intrinsic set — String.indexOf, Math.abs, Unsafe CAS, ...) down
// to the patterns expressible without a real bytecode verifier in this
// module's scope.
type Pattern uint8

const (
	PatternNone Pattern = iota
	PatternNop
	PatternReturnVoid
	PatternReturnArg
	PatternGetter
	PatternSetter
)

// Method describes one statically known inlinable method body, recorded
// once per dex file by whatever upstream verification step populates a
// Registry.
type Method struct {
	Pattern Pattern
	// ArgIndex is the argument slot returned, valid for PatternReturnArg.
	ArgIndex int
	// FieldOffset is the resolved instance-field byte offset a Getter or
	// Setter reads/writes, valid for those two patterns.
	FieldOffset uint32
	Wide        bool
	Ref         bool
}

// FileInliner answers special-pattern queries for the methods of one dex
// file. Construction is cheap enough (a map populated from a
// caller-supplied table) that the lazy-build lock only needs to guard
// the map insert, not a slow scan, matching the real DexFileMethodInliner's
// one-time FindIntrinsics scan.
type FileInliner struct {
	methods map[uint32]Method
}

func newFileInliner(methods map[uint32]Method) *FileInliner {
	return &FileInliner{methods: methods}
}

// Lookup reports the canned pattern for a method index, if any.
func (f *FileInliner) Lookup(methodIdx uint32) (Method, bool) {
	m, ok := f.methods[methodIdx]
	return m, ok
}

// Map is the process-wide DexFileToMethodInlinerMap equivalent: one
// FileInliner per dex file, built on demand by a caller-supplied
// Populate function and cached thereafter.
type Map struct {
	mu       sync.RWMutex
	inliners map[dex.FileID]*FileInliner
	populate func(dex.FileID) map[uint32]Method
}

// NewMap returns a Map that builds a dex file's method table on first
// request via populate. populate is expected to be supplied by the
// driver (it knows how to walk that dex file's method list); this
// package only owns the caching/locking discipline.
func NewMap(populate func(dex.FileID) map[uint32]Method) *Map {
	return &Map{inliners: map[dex.FileID]*FileInliner{}, populate: populate}
}

// Get returns the FileInliner for file, constructing it under the write
// lock on first use and returning the cached instance under the read
// lock on every subsequent call.
func (m *Map) Get(file dex.FileID) *FileInliner {
	m.mu.RLock()
	fi, ok := m.inliners[file]
	m.mu.RUnlock()
	if ok {
		return fi
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if fi, ok := m.inliners[file]; ok {
		return fi
	}
	fi = newFileInliner(m.populate(file))
	m.inliners[file] = fi
	return fi
}

// Bound adapts one (Map, dex.FileID) pair into the passop.SpecialInliner
// interface the MIR pass driver consults, so that package never needs to
// import this one directly (internal/mir/passop.SpecialInliner).
type Bound struct {
	FileInliner *FileInliner
	// Resolve maps a method-lowering-cache index back to the dex method
	// index the driver assigned it at Insert time, since passop only
	// carries the cache index, not the raw dex method index.
	Resolve func(methodLoweringIdx int32) (methodIdx uint32, ok bool)
}

// TryInline implements passop.SpecialInliner.
func (b Bound) TryInline(methodLoweringIdx int32) bool {
	if b.FileInliner == nil || b.Resolve == nil {
		return false
	}
	idx, ok := b.Resolve(methodLoweringIdx)
	if !ok {
		return false
	}
	_, matched := b.FileInliner.Lookup(idx)
	return matched
}
