package arena

const poolPageSize = 128

// Pool hands out *T values from pre-allocated pages, and lets a whole
// generation of them be discarded at once via Reset. It is the typed
// counterpart to Arena: MIR and LIR node storage use Pool[T] so that
// indices into the pool (not raw pointers) can be threaded through the
// graph, matching the "arena + indices replace pointer graphs" design
// note.
type Pool[T any] struct {
	pages            []*[poolPageSize]T
	allocated, index int
}

// NewPool returns a ready-to-use Pool.
func NewPool[T any]() Pool[T] {
	var p Pool[T]
	p.Reset()
	return p
}

// Allocated returns how many T have been handed out since the last Reset.
func (p *Pool[T]) Allocated() int { return p.allocated }

// Allocate returns a pointer to a fresh, zeroed T.
func (p *Pool[T]) Allocate() *T {
	if p.index == poolPageSize {
		if len(p.pages) == cap(p.pages) {
			p.pages = append(p.pages, new([poolPageSize]T))
		} else {
			i := len(p.pages)
			p.pages = p.pages[:i+1]
			if p.pages[i] == nil {
				p.pages[i] = new([poolPageSize]T)
			}
		}
		p.index = 0
	}
	ret := &p.pages[len(p.pages)-1][p.index]
	p.index++
	p.allocated++
	return ret
}

// View returns the pointer to the i-th item ever allocated from this pool
// (0-indexed, stable across pages). Used to resolve small integer ids
// (MIR/LIR/BasicBlock ids) back to their node without carrying a pointer.
func (p *Pool[T]) View(i int) *T {
	page, index := i/poolPageSize, i%poolPageSize
	return &p.pages[page][index]
}

// Reset discards every T allocated so far; backing pages are retained for
// reuse by the next compilation.
func (p *Pool[T]) Reset() {
	for _, page := range p.pages {
		var zero T
		for i := range page {
			page[i] = zero
		}
	}
	p.pages = p.pages[:0]
	p.index = poolPageSize
	p.allocated = 0
}
