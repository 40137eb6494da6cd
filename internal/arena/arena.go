// Package arena implements the bump-pointer region allocator that backs a
// single method compilation. Every MIR node, LIR node,
// bit-vector, and auxiliary map used while compiling one method is carried
// by an Arena or a Pool built on top of one; nothing allocated here is ever
// freed individually, and no destructor is relied upon. The whole region
// chain is rewound for reuse in one shot by Reset.
package arena

import (
	"fmt"

	"github.com/dexaot/aotcore/internal/hostabi"
)

// regionSize is the size of one region in the chain. 32KiB sits in the
// middle of a typical 8-64 KiB chunk size; it is
// rounded up to a multiple of the host page size so a region never
// spans a partial page.
var regionSize = hostabi.RegionSize(32 * 1024)

// Kind tags an allocation for stats/debugging purposes only; it has no
// effect on layout.
type Kind uint8

const (
	KindGeneric Kind = iota
	KindMIR
	KindLIR
	KindBitVector
	KindScratch
)

type region struct {
	buf  []byte
	next int
}

// Arena is a bump allocator chained over fixed-size regions. It is not
// safe for concurrent use; a CompilationUnit owns exactly one Arena and
// never shares it across threads.
type Arena struct {
	align     int
	regions   []*region
	free      []*region // unused: Reset keeps every region in regions and rewinds it
	cur       int       // index into regions of the region currently being filled
	allocated int64
	peak      int64
}

// New creates an Arena that aligns every allocation to align bytes.
// align must be 4 (32-bit targets) or 8 (64-bit targets).
func New(align int) *Arena {
	if align != 4 && align != 8 {
		panic(fmt.Sprintf("arena: invalid alignment %d", align))
	}
	a := &Arena{align: align}
	a.regions = append(a.regions, &region{buf: make([]byte, regionSize)})
	return a
}

// Alloc returns n bytes of zeroed, aligned scratch memory. Size 0 is legal
// and returns a unique, non-nil address.
func (a *Arena) Alloc(n int, _ Kind) []byte {
	if n == 0 {
		n = 1
	}
	r := a.regions[a.cur]
	off := alignUp(r.next, a.align)
	if off+n > len(r.buf) {
		// Current region can't satisfy this request; grow the chain.
		a.cur++
		if a.cur == len(a.regions) {
			sz := regionSize
			if n > sz {
				sz = n
			}
			a.regions = append(a.regions, &region{buf: make([]byte, sz)})
		}
		r = a.regions[a.cur]
		off = 0
		if n > len(r.buf) {
			// Oversized single allocation: replace this slot with a bigger region.
			r = &region{buf: make([]byte, n)}
			a.regions[a.cur] = r
		}
	}
	r.next = off + n
	a.allocated += int64(n)
	if a.allocated > a.peak {
		a.peak = a.allocated
	}
	return r.buf[off : off+n : off+n]
}

func alignUp(off, align int) int {
	return (off + align - 1) &^ (align - 1)
}

// Reset zeroes and rewinds every region in the chain without running
// any destructor, leaving the Arena empty. Regions themselves stay in
// the chain (not returned to the OS) so the next compilation reuses the
// backing storage. The peak counter is not cleared.
func (a *Arena) Reset() {
	for _, r := range a.regions {
		for i := range r.buf {
			r.buf[i] = 0
		}
		r.next = 0
	}
	a.cur = 0
	a.allocated = 0
}

// PeakBytes returns the high-water mark of bytes allocated over the
// Arena's whole lifetime; Reset does not clear it.
func (a *Arena) PeakBytes() int64 { return a.peak }

// Stats returns (bytes currently allocated, number of backing regions).
func (a *Arena) Stats() (allocated int64, regions int) {
	return a.allocated, len(a.regions)
}
