package mxm

import (
	"fmt"

	"github.com/grb-go/grb/internal/parallel"
	"github.com/grb-go/grb/internal/sparse"
	"github.com/grb-go/grb/semiring"
)

// Multiply computes C = A (+.x) B over the supplied semiring,
// optionally restricted to the index structure of mask (or, with
// complement, to everything outside it). Operands are read-only; the
// result is freshly allocated and exclusively owned by the caller.
//
// Rank dispatch follows the operand ranks: matrix x matrix yields a
// matrix, matrix x vector and vector x matrix yield vectors, and
// vector x vector yields a one-entry vector holding the scalar inner
// product (empty when the patterns do not overlap).
//
// Layout preconditions are normalized on entry: A is brought to
// row-major, B to column-major and the mask to row-major, converting
// layouts as needed before the kernel runs. Shape incompatibilities
// are reported before any result buffer is allocated.
func Multiply[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
	cfg parallel.Config,
) (*sparse.Tensor[P, I, V], error) {
	a, b, mask, err := normalize(a, b, mask)
	if err != nil {
		return nil, err
	}

	switch {
	case a.Rank() == 2 && b.Rank() == 2:
		if a.NumCols() != b.NumRows() {
			return nil, fmt.Errorf("%w: contraction %dx%d by %dx%d",
				sparse.ErrShapeMismatch, a.NumRows(), a.NumCols(), b.NumRows(), b.NumCols())
		}
		if mask != nil && (mask.Rank() != 2 || mask.NumRows() != a.NumRows() || mask.NumCols() != b.NumCols()) {
			return nil, fmt.Errorf("%w: mask does not cover %dx%d result",
				sparse.ErrShapeMismatch, a.NumRows(), b.NumCols())
		}
		return matrixMatrix(a, b, mask, complement, ring, cfg)

	case a.Rank() == 2 && b.Rank() == 1:
		if a.NumCols() != b.Size() {
			return nil, fmt.Errorf("%w: contraction %dx%d by vector %d",
				sparse.ErrShapeMismatch, a.NumRows(), a.NumCols(), b.Size())
		}
		if mask != nil && (mask.Rank() != 1 || mask.Size() != a.NumRows()) {
			return nil, fmt.Errorf("%w: mask does not cover vector result %d",
				sparse.ErrShapeMismatch, a.NumRows())
		}
		return matrixVector(a, b, mask, complement, ring, cfg)

	case a.Rank() == 1 && b.Rank() == 2:
		if a.Size() != b.NumRows() {
			return nil, fmt.Errorf("%w: contraction vector %d by %dx%d",
				sparse.ErrShapeMismatch, a.Size(), b.NumRows(), b.NumCols())
		}
		if mask != nil && (mask.Rank() != 1 || mask.Size() != b.NumCols()) {
			return nil, fmt.Errorf("%w: mask does not cover vector result %d",
				sparse.ErrShapeMismatch, b.NumCols())
		}
		return vectorMatrix(a, b, mask, complement, ring, cfg)

	default:
		if a.Size() != b.Size() {
			return nil, fmt.Errorf("%w: inner product of %d by %d",
				sparse.ErrShapeMismatch, a.Size(), b.Size())
		}
		return vectorVector(a, b, ring)
	}
}

// normalize applies the layout preconditions, converting any operand
// whose storage order does not match. The mask with no operand is a
// no-op; complement with no mask restricts nothing and is handled by
// the callers treating it as unmasked.
func normalize[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
) (na, nb, nm *sparse.Tensor[P, I, V], err error) {
	if a.Rank() > 2 || b.Rank() > 2 {
		return nil, nil, nil, fmt.Errorf("%w: multiply of rank %d by rank %d",
			sparse.ErrUnsupported, a.Rank(), b.Rank())
	}
	if na, err = a.ToRowMajor(); err != nil {
		return nil, nil, nil, err
	}
	if nb, err = b.ToColMajor(); err != nil {
		return nil, nil, nil, err
	}
	if mask != nil {
		if nm, err = mask.ToRowMajor(); err != nil {
			return nil, nil, nil, err
		}
	}
	return na, nb, nm, nil
}

// innerDim returns the compressed dimension carrying the pointer and
// index buffers of a normalized operand: dimension 1 for matrices,
// dimension 0 for vectors.
func innerDim[P sparse.Pointer, I sparse.Index, V sparse.Value](t *sparse.Tensor[P, I, V]) int {
	if t.Rank() == 2 {
		return 1
	}
	return 0
}

// segments fetches the pointer/index/value buffers of a normalized
// operand.
func segments[P sparse.Pointer, I sparse.Index, V sparse.Value](t *sparse.Tensor[P, I, V]) ([]P, []I, []V, error) {
	d := innerDim(t)
	ptr, err := t.Pointers(d)
	if err != nil {
		return nil, nil, nil, err
	}
	idx, err := t.Indices(d)
	if err != nil {
		return nil, nil, nil, err
	}
	return ptr, idx, t.Values(), nil
}
