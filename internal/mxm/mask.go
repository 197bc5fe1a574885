// Package mxm implements the masked semiring multiplication engine
// for the grb library.
package mxm

import "github.com/grb-go/grb/internal/sparse"

// fullRange returns the ascending candidate list 0..n-1, used when no
// mask restricts the output positions. Built once per multiplication
// and shared read-only across workers.
func fullRange[I sparse.Index](n int) []I {
	cand := make([]I, n)
	for j := range cand {
		cand[j] = I(j)
	}
	return cand
}

// buildComplement emits into dst every position in [0, n) absent from
// the ascending list present, the counting-sort-style complement of a
// mask row. dst is a per-worker buffer; the returned slice aliases it.
func buildComplement[I sparse.Index](n int, present, dst []I) []I {
	dst = dst[:0]
	p := 0
	for j := 0; j < n; j++ {
		if p < len(present) && int(present[p]) == j {
			p++
			continue
		}
		dst = append(dst, I(j))
	}
	return dst
}

// rowScratch is the dense per-worker scratch pair for one output row:
// a visited switch over the contraction dimension plus the operand
// values at the visited positions. reset clears only the touched
// entries, keeping row cost proportional to the row's nonzeros.
type rowScratch[I sparse.Index, V sparse.Value] struct {
	kept    []bool
	vals    []V
	touched []I
}

func newRowScratch[I sparse.Index, V sparse.Value](n int) *rowScratch[I, V] {
	return &rowScratch[I, V]{
		kept: make([]bool, n),
		vals: make([]V, n),
	}
}

func (s *rowScratch[I, V]) mark(i I, v V) {
	if !s.kept[i] {
		s.kept[i] = true
		s.touched = append(s.touched, i)
	}
	s.vals[i] = v
}

func (s *rowScratch[I, V]) reset() {
	for _, i := range s.touched {
		s.kept[i] = false
	}
	s.touched = s.touched[:0]
}
