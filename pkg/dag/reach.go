package dag

import "math/bits"

// VirtualRoot is the arena index reserved for the synthetic universal root
// of an [Index] built with a virtual root. It never maps to a real code.
const VirtualRoot = 0

// Bitset is a fixed-size set of small non-negative integers.
type Bitset []uint64

// NewBitset returns an empty bitset able to hold values in [0, n).
func NewBitset(n int) Bitset { return make(Bitset, (n+63)/64) }

// Set adds i to the set.
func (b Bitset) Set(i int) { b[i/64] |= 1 << (uint(i) % 64) }

// Has reports whether i is in the set.
func (b Bitset) Has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

// Or adds every member of o to b. Both sets must have the same size.
func (b Bitset) Or(o Bitset) {
	for i := range b {
		b[i] |= o[i]
	}
}

// And keeps only the members of b that are also in o.
func (b Bitset) And(o Bitset) {
	for i := range b {
		b[i] &= o[i]
	}
}

// Clone returns an independent copy of b.
func (b Bitset) Clone() Bitset {
	out := make(Bitset, len(b))
	copy(out, b)
	return out
}

// Count returns the number of members.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Each calls fn for every member in ascending order.
func (b Bitset) Each(fn func(i int)) {
	for wi, w := range b {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			fn(wi*64 + tz)
			w &^= 1 << uint(tz)
		}
	}
}

// Index is a precomputed ancestor index over a DAG. Every code gets an
// integer id in an arena; id 0 is reserved for an optional virtual root
// that is a parent of every root of the graph. After one O(V+E) pass in
// topological order (with O(V/64) work per edge), "is a an ancestor of b"
// is a single bit test.
//
// An Index is immutable and safe for concurrent use.
type Index struct {
	ids     map[string]int
	names   []string
	anc     []Bitset // anc[i]: strict ancestors of i
	virtual bool
}

// NewIndex builds an ancestor index for g. When virtualRoot is true the
// arena contains [VirtualRoot] as the single parent of all roots of g, so
// every node has the virtual root among its ancestors.
func NewIndex(g *DAG, virtualRoot bool) *Index {
	order := g.TopologicalOrder()
	n := len(order) + 1
	ix := &Index{
		ids:     make(map[string]int, len(order)),
		names:   make([]string, n),
		anc:     make([]Bitset, n),
		virtual: virtualRoot,
	}
	ix.anc[VirtualRoot] = NewBitset(n)
	for i, id := range order {
		ix.ids[id] = i + 1
		ix.names[i+1] = id
	}

	for _, id := range order {
		v := ix.ids[id]
		set := NewBitset(n)
		parents := g.Parents(id)
		if len(parents) == 0 && virtualRoot {
			set.Set(VirtualRoot)
		}
		for _, p := range parents {
			pid := ix.ids[p]
			set.Set(pid)
			if ix.anc[pid] != nil {
				set.Or(ix.anc[pid])
			}
		}
		ix.anc[v] = set
	}
	return ix
}

// Size returns the arena size, including the reserved virtual root slot.
func (ix *Index) Size() int { return len(ix.names) }

// HasVirtualRoot reports whether the index was built with a virtual root.
func (ix *Index) HasVirtualRoot() bool { return ix.virtual }

// ID returns the arena id of code.
func (ix *Index) ID(code string) (int, bool) {
	id, ok := ix.ids[code]
	return id, ok
}

// Name returns the code for an arena id. The virtual root has no name.
func (ix *Index) Name(id int) string { return ix.names[id] }

// IsAncestor reports whether a is a strict ancestor of b, i.e. a directed
// path of at least one edge leads from a to b.
func (ix *Index) IsAncestor(a, b int) bool {
	if a == b {
		return false
	}
	return ix.anc[b].Has(a)
}

// Ancestors returns a copy of the strict ancestor set of id.
func (ix *Index) Ancestors(id int) Bitset { return ix.anc[id].Clone() }

// AncestorsOrSelf returns the strict ancestors of id plus id itself.
func (ix *Index) AncestorsOrSelf(id int) Bitset {
	b := ix.anc[id].Clone()
	b.Set(id)
	return b
}
