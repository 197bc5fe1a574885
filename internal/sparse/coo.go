package sparse

import "sort"

// Element is one stored entry of a coordinate-scheme tensor.
type Element[I Index, V Value] struct {
	Coords []I
	Val    V
}

// COO is a memory-resident tensor in coordinate scheme, used to stage
// unsorted input before compression into a Tensor. The permutation
// supplied at construction decides the lexicographic sort order, so a
// single COO source can feed either row-major or column-major storage.
type COO[I Index, V Value] struct {
	sizes []uint64
	perm  []int
	elems []Element[I, V]
}

// NewCOO creates an empty coordinate-scheme tensor with the given
// logical sizes and storage permutation. perm[s] names the logical
// dimension stored at storage dimension s; nil means identity.
func NewCOO[I Index, V Value](sizes []uint64, perm []int, capacity int) *COO[I, V] {
	if perm == nil {
		perm = make([]int, len(sizes))
		for d := range perm {
			perm[d] = d
		}
	}
	return &COO[I, V]{
		sizes: sizes,
		perm:  perm,
		elems: make([]Element[I, V], 0, capacity),
	}
}

// Sizes returns the logical per-dimension extents.
func (c *COO[I, V]) Sizes() []uint64 { return c.sizes }

// Perm returns the storage permutation.
func (c *COO[I, V]) Perm() []int { return c.perm }

// Elements returns the staged entries in their current order.
func (c *COO[I, V]) Elements() []Element[I, V] { return c.elems }

// Add stages one entry. Coordinates are logical; they are not
// validated here (FromCOO checks extents during compression).
func (c *COO[I, V]) Add(coords []I, val V) {
	own := make([]I, len(coords))
	copy(own, coords)
	c.elems = append(c.elems, Element[I, V]{Coords: own, Val: val})
}

// Sort orders the staged entries lexicographically by permuted
// coordinate, the precondition for the compression pass.
func (c *COO[I, V]) Sort() {
	perm := c.perm
	sort.SliceStable(c.elems, func(a, b int) bool {
		ca, cb := c.elems[a].Coords, c.elems[b].Coords
		for _, d := range perm {
			if ca[d] != cb[d] {
				return ca[d] < cb[d]
			}
		}
		return false
	})
}
