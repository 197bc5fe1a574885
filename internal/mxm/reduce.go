package mxm

import (
	"fmt"

	"github.com/grb-go/grb/internal/parallel"
	"github.com/grb-go/grb/internal/sparse"
	"github.com/grb-go/grb/semiring"
)

// MultiplyReduce computes the full additive reduction of A (+.x) B
// without materializing the product: the additive combine is fused
// across both the column and the row loop, sharing the mask,
// complement and overlap logic of Multiply but skipping all index
// output. The additive identity is returned when nothing overlaps.
//
// The accumulation visits rows in index order; since the additive
// combine is associative and commutative, the result matches folding
// Multiply's output in any order.
func MultiplyReduce[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
) (V, error) {
	var zero V
	a, b, mask, err := normalize(a, b, mask)
	if err != nil {
		return zero, err
	}

	switch {
	case a.Rank() == 2 && b.Rank() == 2:
		if a.NumCols() != b.NumRows() {
			return zero, fmt.Errorf("%w: contraction %dx%d by %dx%d",
				sparse.ErrShapeMismatch, a.NumRows(), a.NumCols(), b.NumRows(), b.NumCols())
		}
		if mask != nil && (mask.Rank() != 2 || mask.NumRows() != a.NumRows() || mask.NumCols() != b.NumCols()) {
			return zero, fmt.Errorf("%w: mask does not cover %dx%d result",
				sparse.ErrShapeMismatch, a.NumRows(), b.NumCols())
		}
		return reduceMatrixMatrix(a, b, mask, complement, ring)

	case a.Rank() == 1 && b.Rank() == 1:
		if a.Size() != b.Size() {
			return zero, fmt.Errorf("%w: inner product of %d by %d",
				sparse.ErrShapeMismatch, a.Size(), b.Size())
		}
		c, err := vectorVector(a, b, ring)
		if err != nil {
			return zero, err
		}
		if c.NumVals() == 0 {
			return ring.AddIdentity, nil
		}
		return c.Values()[0], nil

	default:
		// Mixed ranks reduce the vector result of the plain kernel.
		c, err := Multiply(a, b, mask, complement, ring, sequentialConfig())
		if err != nil {
			return zero, err
		}
		acc := ring.AddIdentity
		for _, v := range c.Values() {
			acc = ring.Add(acc, v)
		}
		return acc, nil
	}
}

func reduceMatrixMatrix[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
) (V, error) {
	var zero V
	nrow := a.NumRows()
	ncol := b.NumCols()
	nk := a.NumCols()

	ap, aj, ax, err := segments(a)
	if err != nil {
		return zero, err
	}
	bp, bi, bx, err := segments(b)
	if err != nil {
		return zero, err
	}
	var mp []P
	var mj []I
	if mask != nil {
		if mp, mj, _, err = segments(mask); err != nil {
			return zero, err
		}
	}
	var all []I
	if mask == nil {
		all = fullRange[I](ncol)
	}

	scr := newRowScratch[I, V](nk)
	var compBuf []I
	if mask != nil && complement {
		compBuf = make([]I, 0, ncol)
	}

	acc := ring.AddIdentity
	for r := 0; r < nrow; r++ {
		colStart, colEnd := int(ap[r]), int(ap[r+1])
		if colStart == colEnd {
			continue
		}
		cand := all
		if mask != nil {
			mrow := mj[mp[r]:mp[r+1]]
			if complement {
				compBuf = buildComplement(ncol, mrow, compBuf)
				cand = compBuf
			} else {
				cand = mrow
			}
		}
		for jj := colStart; jj < colEnd; jj++ {
			scr.mark(aj[jj], ax[jj])
		}
		for _, j := range cand {
			for pp := int(bp[j]); pp < int(bp[int(j)+1]); pp++ {
				k := int(bi[pp])
				if scr.kept[k] {
					acc = ring.Add(acc, ring.Mult(scr.vals[k], bx[pp], k))
				}
			}
		}
		scr.reset()
	}
	return acc, nil
}

// sequentialConfig disables worker fan-out for the small interior
// multiplications issued by MultiplyReduce.
func sequentialConfig() parallel.Config {
	return parallel.Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}
