package sparse

import "fmt"

// ConvertLayout rebuilds the tensor with the given storage order.
// Vectors and matching orders produce a deep copy. For matrices the
// row-major/column-major flip is a counting-sort transpose: one
// histogram pass over the existing compressed dimension, a cumulative
// sum to place each destination segment, and one pass copying every
// (coordinate, value) pair to its slot. O(nnz + extent), no sort.
//
// Only the [Dense, Compressed] matrix annotation has a dual layout;
// anything else is ErrUnsupported.
func (t *Tensor[P, I, V]) ConvertLayout(order []int) (*Tensor[P, I, V], error) {
	if len(order) != t.Rank() {
		return nil, fmt.Errorf("%w: order length %d for rank %d", ErrShapeMismatch, len(order), t.Rank())
	}
	same := true
	for s := range order {
		if order[s] != t.dimOrder[s] {
			same = false
			break
		}
	}
	if same || t.Rank() == 1 {
		return t.Dup(), nil
	}
	if t.Rank() != 2 || t.IsCompressedDim(0) || !t.IsCompressedDim(1) {
		return nil, fmt.Errorf("%w: layout conversion of rank %d annotation", ErrUnsupported, t.Rank())
	}

	ap := t.pointers[1]
	aj := t.indices[1]
	ax := t.values
	nseg := int(t.sizes[0]) // source outer extent
	ndst := int(t.sizes[1]) // destination outer extent
	nnz := len(aj)

	out, err := New[P, I, V](t.LogicalSizes(), order, []DimKind{Dense, Compressed})
	if err != nil {
		return nil, err
	}

	bp := make([]P, ndst+1)
	bi := make([]I, nnz)
	bx := make([]V, nnz)

	// Histogram of destination segment lengths.
	for _, j := range aj {
		bp[int(j)+1]++
	}
	for d := 0; d < ndst; d++ {
		bp[d+1] += bp[d]
	}
	// Scatter using a running per-segment offset.
	next := make([]int, ndst)
	for s := 0; s < nseg; s++ {
		for pp := int(ap[s]); pp < int(ap[s+1]); pp++ {
			j := int(aj[pp])
			slot := int(bp[j]) + next[j]
			next[j]++
			bi[slot] = I(s)
			bx[slot] = ax[pp]
		}
	}

	out.pointers[1] = bp
	out.indices[1] = bi
	out.values = bx
	return out, nil
}

// ToRowMajor returns the tensor itself when already row-major, or a
// freshly converted row-major copy.
func (t *Tensor[P, I, V]) ToRowMajor() (*Tensor[P, I, V], error) {
	if t.IsRowMajor() {
		return t, nil
	}
	return t.ConvertLayout(identityOrder(t.Rank()))
}

// ToColMajor returns the tensor itself when already column-major, or a
// freshly converted column-major copy. Vectors have no column-major
// dual and are returned unchanged.
func (t *Tensor[P, I, V]) ToColMajor() (*Tensor[P, I, V], error) {
	if t.Rank() == 1 || !t.IsRowMajor() {
		return t, nil
	}
	return t.ConvertLayout([]int{1, 0})
}

func identityOrder(rank int) []int {
	order := make([]int, rank)
	for d := range order {
		order[d] = d
	}
	return order
}
