// Package backend implements the ISA-independent half of the backend:
// block scheduling, the local register allocator's LoadValue/StoreValue
// glue, the four invoke dispatch state machines, switch/fill-array-data
// handling, safepoint emission, and the two-pass assembler. Concrete
// per-ISA encoding tables live in internal/backend/isa/*, each
// implementing the Machine interface this package defines.
//
// LIR mirrors MIR's arena-plus-indices design: nodes live in an
// arena.Pool and reference each other by small integer id. LIR is
// doubly linked (unlike MIR's singly linked list), so InsertAfter can
// splice a node after any existing one and a pass can walk backward
// from a call site to find its preceding label. The assembler's
// branch-overflow retry does not splice; it re-encodes the branch node
// in place.
package backend

import "github.com/dexaot/aotcore/internal/arena"

// LIRID is an arena.Pool index into a Graph's LIR pool.
type LIRID int32

const InvalidLIRID LIRID = -1

// LIROp distinguishes a genuine target instruction from one of the
// pseudo-LIR ops the backend inserts around it.
type LIROp uint16

const (
	LIROpInvalid LIROp = iota

	// LIROpReal is a genuine target instruction; its encoding lives in
	// Payload, opaque to every pass outside the concrete ISA package.
	LIROpReal

	// LIROpLabel marks a block boundary; Payload holds the mir.BlockID
	// it stands in for.
	LIROpLabel

	// LIROpUnconditionalBranch is inserted by ScheduleBlocks when a
	// block's fall-through successor isn't the next block in scheduled
	// order; Target is patched once every block's label exists.
	LIROpUnconditionalBranch

	// LIROpSafepointPC is appended after every call instruction so the
	// assembler's offset-assignment pass has something to record a
	// native PC against for the GC map.
	LIROpSafepointPC
)

// LIR is one backend instruction. Payload carries the Machine-specific
// encoding of a LIROpReal instruction (an opaque handle the concrete ISA
// package interprets); generic passes in this package never look inside
// it.
type LIR struct {
	Op      LIROp
	Payload interface{}

	// Target is the LIRID this instruction branches/refers to, valid for
	// LIROpUnconditionalBranch and conditional-branch LIROpReal payloads
	// that embed their own target via the Machine.
	Target LIRID

	// NativeOffset is filled in by the assembler's first pass
	// ("assign offsets") and consumed by its second pass and by the
	// safepoint/mapping-table emitters.
	NativeOffset int

	Next, Prev, id LIRID
}

func (l *LIR) ID() LIRID { return l.id }

// Graph is the per-method LIR list, paired 1:1 with one mir.Graph during
// lowering. It has no block structure of its own; LIROpLabel markers
// stand in for MIR block boundaries.
type Graph struct {
	lirs  arena.Pool[LIR]
	count int
	Head  LIRID
	tail  LIRID
}

func NewGraph() *Graph {
	return &Graph{lirs: arena.NewPool[LIR](), Head: InvalidLIRID, tail: InvalidLIRID}
}

func (g *Graph) Reset() {
	g.lirs.Reset()
	g.count = 0
	g.Head, g.tail = InvalidLIRID, InvalidLIRID
}

func (g *Graph) Get(id LIRID) *LIR {
	if id < 0 {
		return nil
	}
	return g.lirs.View(int(id))
}

// Append allocates and links a new LIR at the tail of the list.
func (g *Graph) Append(op LIROp, payload interface{}) *LIR {
	l := g.lirs.Allocate()
	l.id = LIRID(g.count)
	g.count++
	l.Op = op
	l.Payload = payload
	l.Next, l.Prev = InvalidLIRID, InvalidLIRID
	l.Target = InvalidLIRID

	if g.Head == InvalidLIRID {
		g.Head = l.id
	} else {
		tail := g.Get(g.tail)
		tail.Next = l.id
		l.Prev = g.tail
	}
	g.tail = l.id
	return l
}

// InsertAfter splices a new node right after prev without renumbering
// the rest of the list. Nothing in this module calls it; the
// assembler's branch-overflow retry enlarges a branch in place instead.
func (g *Graph) InsertAfter(prev LIRID, op LIROp, payload interface{}) *LIR {
	l := g.lirs.Allocate()
	l.id = LIRID(g.count)
	g.count++
	l.Op = op
	l.Payload = payload
	l.Target = InvalidLIRID

	p := g.Get(prev)
	l.Next = p.Next
	l.Prev = prev
	if p.Next != InvalidLIRID {
		g.Get(p.Next).Prev = l.id
	} else {
		g.tail = l.id
	}
	p.Next = l.id
	return l
}

// Remove unlinks id from the list without freeing its arena slot; arena
// slots are never freed individually, only in bulk via Reset.
func (g *Graph) Remove(id LIRID) {
	l := g.Get(id)
	if l.Prev != InvalidLIRID {
		g.Get(l.Prev).Next = l.Next
	} else {
		g.Head = l.Next
	}
	if l.Next != InvalidLIRID {
		g.Get(l.Next).Prev = l.Prev
	} else {
		g.tail = l.Prev
	}
}

// Walk calls fn for every LIR in forward order.
func (g *Graph) Walk(fn func(*LIR)) {
	for id := g.Head; id != InvalidLIRID; {
		l := g.Get(id)
		next := l.Next
		fn(l)
		id = next
	}
}
