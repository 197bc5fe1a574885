package mxm

import (
	"fmt"

	"github.com/grb-go/grb/internal/parallel"
	"github.com/grb-go/grb/internal/sparse"
	"github.com/grb-go/grb/semiring"
)

// matrixMatrix is the general masked SpGEMM kernel. A is row-major,
// B column-major, the mask (when present) row-major; all three were
// normalized by the caller.
//
// Three passes build C:
//  1. count, parallel over output rows: per-row surviving nonzeros by
//     overlap counting against the (optionally complemented) mask row
//  2. exclusive prefix sum over the counts, sequential, followed by
//     one resize of C's index/value buffers to the final total
//  3. fill, parallel over output rows: recompute each inner product
//     and write the sorted row slice at its precomputed offset
//
// Rows own disjoint output ranges, so the two parallel passes need no
// synchronization beyond worker-private scratch.
func matrixMatrix[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
	cfg parallel.Config,
) (*sparse.Tensor[P, I, V], error) {
	nrow := a.NumRows()
	ncol := b.NumCols()
	nk := a.NumCols()

	ap, aj, ax, err := segments(a)
	if err != nil {
		return nil, err
	}
	bp, bi, bx, err := segments(b)
	if err != nil {
		return nil, err
	}
	var mp []P
	var mj []I
	if mask != nil {
		if mp, mj, _, err = segments(mask); err != nil {
			return nil, err
		}
	}
	var all []I
	if mask == nil {
		all = fullRange[I](ncol)
	}

	c, err := sparse.New[P, I, V]([]uint64{uint64(nrow), uint64(ncol)}, nil,
		[]sparse.DimKind{sparse.Dense, sparse.Compressed})
	if err != nil {
		return nil, err
	}
	if err := c.ResizePointers(1, nrow+1); err != nil {
		return nil, err
	}
	cp, err := c.Pointers(1)
	if err != nil {
		return nil, err
	}

	// Pass 1: per-row overlap counts. Counts go to a plain int buffer
	// so a narrow pointer width cannot silently truncate them before
	// the prefix sum checks the final total.
	counts := make([]int, nrow)
	parallel.ForRange(nrow, func(lo, hi int) {
		scr := newRowScratch[I, V](nk)
		var compBuf []I
		if mask != nil && complement {
			compBuf = make([]I, 0, ncol)
		}
		for r := lo; r < hi; r++ {
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
			total := 0
			for _, j := range cand {
				for pp := int(bp[j]); pp < int(bp[int(j)+1]); pp++ {
					if scr.kept[bi[pp]] {
						total++
						break
					}
				}
			}
			counts[r] = total
			scr.reset()
		}
	}, cfg)

	// Pass 2: exclusive prefix sum and buffer resize.
	total := uint64(0)
	for r := 0; r < nrow; r++ {
		total += uint64(counts[r])
		cp[r+1] = P(total)
	}
	if uint64(cp[nrow]) != total {
		return nil, fmt.Errorf("%w: %d result entries exceed pointer width", sparse.ErrExhausted, total)
	}
	nnz := int(total)
	if err := c.ResizeIndex(1, nnz); err != nil {
		return nil, err
	}
	if err := c.ResizeValues(nnz); err != nil {
		return nil, err
	}
	cj, err := c.Indices(1)
	if err != nil {
		return nil, err
	}
	cx := c.Values()

	// Pass 3: recompute each row's inner products and fill its slice.
	parallel.ForRange(nrow, func(lo, hi int) {
		scr := newRowScratch[I, V](nk)
		var compBuf []I
		if mask != nil && complement {
			compBuf = make([]I, 0, ncol)
		}
		for r := lo; r < hi; r++ {
			pos, end := int(cp[r]), int(cp[r+1])
			if pos == end {
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
			for jj := int(ap[r]); jj < int(ap[r+1]); jj++ {
				scr.mark(aj[jj], ax[jj])
			}
			for _, j := range cand {
				acc := ring.AddIdentity
				hit := false
				for pp := int(bp[j]); pp < int(bp[int(j)+1]); pp++ {
					k := int(bi[pp])
					if scr.kept[k] {
						acc = ring.Add(acc, ring.Mult(scr.vals[k], bx[pp], k))
						hit = true
					}
				}
				if hit {
					cj[pos] = j
					cx[pos] = acc
					pos++
				}
			}
			scr.reset()
		}
	}, cfg)

	return c, nil
}
