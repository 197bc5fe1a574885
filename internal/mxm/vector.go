package mxm

import (
	"github.com/grb-go/grb/internal/parallel"
	"github.com/grb-go/grb/internal/sparse"
	"github.com/grb-go/grb/semiring"
)

// matrixVector computes the vector C = A*b. The vector operand is the
// fixed element: its pattern is marked once in a dense scratch shared
// read-only by every worker, and the rows of A are the iteration
// element, exactly the degenerate single-column form of the matrix
// kernel.
func matrixVector[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
	cfg parallel.Config,
) (*sparse.Tensor[P, I, V], error) {
	size := a.NumRows()
	nk := a.NumCols()

	ap, aj, ax, err := segments(a)
	if err != nil {
		return nil, err
	}
	cand, err := vectorCandidates(mask, complement, size)
	if err != nil {
		return nil, err
	}

	fixed := newRowScratch[I, V](nk)
	bp, bi, bx, err := segments(b)
	if err != nil {
		return nil, err
	}
	for pp := int(bp[0]); pp < int(bp[1]); pp++ {
		fixed.mark(bi[pp], bx[pp])
	}

	// Count pass: one overlap flag per candidate row.
	hits := make([]bool, len(cand))
	parallel.ForRange(len(cand), func(lo, hi int) {
		for ci := lo; ci < hi; ci++ {
			r := int(cand[ci])
			for jj := int(ap[r]); jj < int(ap[r+1]); jj++ {
				if fixed.kept[aj[jj]] {
					hits[ci] = true
					break
				}
			}
		}
	}, cfg)

	c, pos, err := emptyVector[P, I, V](size, hits)
	if err != nil {
		return nil, err
	}
	ci0, err := c.Indices(0)
	if err != nil {
		return nil, err
	}
	cx := c.Values()

	// Fill pass: recompute each surviving row's inner product.
	parallel.ForRange(len(cand), func(lo, hi int) {
		for ci := lo; ci < hi; ci++ {
			if !hits[ci] {
				continue
			}
			r := int(cand[ci])
			acc := ring.AddIdentity
			for jj := int(ap[r]); jj < int(ap[r+1]); jj++ {
				k := int(aj[jj])
				if fixed.kept[k] {
					acc = ring.Add(acc, ring.Mult(ax[jj], fixed.vals[k], k))
				}
			}
			ci0[pos[ci]] = I(r)
			cx[pos[ci]] = acc
		}
	}, cfg)

	return c, nil
}

// vectorMatrix computes the vector C = a*B: the vector pattern is the
// fixed element and the columns of the column-major B are iterated.
func vectorMatrix[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
	cfg parallel.Config,
) (*sparse.Tensor[P, I, V], error) {
	size := b.NumCols()
	nk := a.Size()

	bp, bi, bx, err := segments(b)
	if err != nil {
		return nil, err
	}
	cand, err := vectorCandidates(mask, complement, size)
	if err != nil {
		return nil, err
	}

	fixed := newRowScratch[I, V](nk)
	apv, aiv, axv, err := segments(a)
	if err != nil {
		return nil, err
	}
	for pp := int(apv[0]); pp < int(apv[1]); pp++ {
		fixed.mark(aiv[pp], axv[pp])
	}

	hits := make([]bool, len(cand))
	parallel.ForRange(len(cand), func(lo, hi int) {
		for ci := lo; ci < hi; ci++ {
			j := int(cand[ci])
			for pp := int(bp[j]); pp < int(bp[j+1]); pp++ {
				if fixed.kept[bi[pp]] {
					hits[ci] = true
					break
				}
			}
		}
	}, cfg)

	c, pos, err := emptyVector[P, I, V](size, hits)
	if err != nil {
		return nil, err
	}
	ci0, err := c.Indices(0)
	if err != nil {
		return nil, err
	}
	cx := c.Values()

	parallel.ForRange(len(cand), func(lo, hi int) {
		for ci := lo; ci < hi; ci++ {
			if !hits[ci] {
				continue
			}
			j := int(cand[ci])
			acc := ring.AddIdentity
			for pp := int(bp[j]); pp < int(bp[j+1]); pp++ {
				k := int(bi[pp])
				if fixed.kept[k] {
					acc = ring.Add(acc, ring.Mult(fixed.vals[k], bx[pp], k))
				}
			}
			ci0[pos[ci]] = I(j)
			cx[pos[ci]] = acc
		}
	}, cfg)

	return c, nil
}

// vectorVector computes the inner product of two sparse vectors as a
// size-1 vector holding the scalar, empty when the patterns are
// disjoint. Masks do not apply to a scalar result.
func vectorVector[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b *sparse.Tensor[P, I, V],
	ring semiring.Semiring[V],
) (*sparse.Tensor[P, I, V], error) {
	fixed := newRowScratch[I, V](a.Size())
	apv, aiv, axv, err := segments(a)
	if err != nil {
		return nil, err
	}
	for pp := int(apv[0]); pp < int(apv[1]); pp++ {
		fixed.mark(aiv[pp], axv[pp])
	}

	bp, bi, bx, err := segments(b)
	if err != nil {
		return nil, err
	}
	acc := ring.AddIdentity
	hit := false
	for pp := int(bp[0]); pp < int(bp[1]); pp++ {
		k := int(bi[pp])
		if fixed.kept[k] {
			acc = ring.Add(acc, ring.Mult(fixed.vals[k], bx[pp], k))
			hit = true
		}
	}

	c, err := sparse.New[P, I, V]([]uint64{1}, nil, []sparse.DimKind{sparse.Compressed})
	if err != nil {
		return nil, err
	}
	if !hit {
		if err := c.ResizePointers(0, 2); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err := c.ResizePointers(0, 2); err != nil {
		return nil, err
	}
	cp, err := c.Pointers(0)
	if err != nil {
		return nil, err
	}
	cp[1] = 1
	if err := c.ResizeIndex(0, 1); err != nil {
		return nil, err
	}
	if err := c.ResizeValues(1); err != nil {
		return nil, err
	}
	ci0, err := c.Indices(0)
	if err != nil {
		return nil, err
	}
	ci0[0] = 0
	c.Values()[0] = acc
	return c, nil
}

// vectorCandidates resolves the candidate output positions of a
// vector-valued result: the mask's indices, their complement, or the
// full range when unmasked.
func vectorCandidates[P sparse.Pointer, I sparse.Index, V sparse.Value](
	mask *sparse.Tensor[P, I, V],
	complement bool,
	size int,
) ([]I, error) {
	if mask == nil {
		return fullRange[I](size), nil
	}
	_, mi, _, err := segments(mask)
	if err != nil {
		return nil, err
	}
	if complement {
		return buildComplement(size, mi, make([]I, 0, size)), nil
	}
	return mi, nil
}

// emptyVector allocates a sparse vector sized for the hit flags and
// returns the output slot of each surviving candidate.
func emptyVector[P sparse.Pointer, I sparse.Index, V sparse.Value](size int, hits []bool) (*sparse.Tensor[P, I, V], []int, error) {
	c, err := sparse.New[P, I, V]([]uint64{uint64(size)}, nil, []sparse.DimKind{sparse.Compressed})
	if err != nil {
		return nil, nil, err
	}
	pos := make([]int, len(hits))
	nnz := 0
	for ci, hit := range hits {
		pos[ci] = nnz
		if hit {
			nnz++
		}
	}
	if err := c.ResizePointers(0, 2); err != nil {
		return nil, nil, err
	}
	cp, err := c.Pointers(0)
	if err != nil {
		return nil, nil, err
	}
	cp[1] = P(nnz)
	if int(cp[1]) != nnz {
		return nil, nil, sparse.ErrExhausted
	}
	if err := c.ResizeIndex(0, nnz); err != nil {
		return nil, nil, err
	}
	if err := c.ResizeValues(nnz); err != nil {
		return nil, nil, err
	}
	return c, pos, nil
}
