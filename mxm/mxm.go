// Copyright 2025 The grb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package mxm provides the public API for masked semiring matrix
// multiplication in the grb library.
//
// Multiply computes C = A (+.x) B for any combination of matrix and
// vector operands, over any semiring, optionally restricted by a
// structural mask or its complement. Layout preconditions (A
// row-major, B column-major, mask row-major) are normalized
// automatically.
//
// Example:
//
//	a, _ := sparse.NewCSR[uint64, uint64, float64](2, 4,
//	    []int{0, 0, 1}, []int{1, 2, 3}, []float64{1, 2, 3})
//	b, _ := sparse.NewCSC[uint64, uint64, float64](4, 2,
//	    []int{0, 1, 2, 3, 3}, []int{1, 0, 0, 0, 1}, []float64{7, 4, 5, 6, 8})
//	c, err := mxm.Multiply(a, b, nil, false, semiring.PlusTimes[float64]())
package mxm

import (
	"github.com/grb-go/grb/internal/mxm"
	"github.com/grb-go/grb/internal/parallel"
	"github.com/grb-go/grb/semiring"
	"github.com/grb-go/grb/sparse"
)

// Config controls the worker fan-out of the parallel count and fill
// passes.
type Config = parallel.Config

// DefaultConfig returns the CPU-count based default.
func DefaultConfig() Config {
	return parallel.DefaultConfig()
}

// Multiply computes A (+.x) B over the given semiring, restricted to
// the mask's index structure when a mask is supplied (or to its
// complement). The result rank follows the operands: matrix for
// matrix x matrix, vector for the mixed cases, and a one-entry vector
// holding the scalar for vector x vector (see Dot).
func Multiply[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
) (*sparse.Tensor[P, I, V], error) {
	return mxm.Multiply(a, b, mask, complement, ring, parallel.DefaultConfig())
}

// MultiplyWith is Multiply under an explicit parallelism config.
func MultiplyWith[P sparse.Pointer, I sparse.Index, V sparse.Value](
	cfg Config,
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
) (*sparse.Tensor[P, I, V], error) {
	return mxm.Multiply(a, b, mask, complement, ring, cfg)
}

// MultiplyReduce fuses multiplication with a full additive reduction,
// returning a single scalar without materializing the product. The
// additive identity is returned when nothing overlaps.
func MultiplyReduce[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b, mask *sparse.Tensor[P, I, V],
	complement bool,
	ring semiring.Semiring[V],
) (V, error) {
	return mxm.MultiplyReduce(a, b, mask, complement, ring)
}

// Dot computes the inner product of two sparse vectors. ok reports
// whether the patterns overlapped at all; when false, the scalar is
// the ring's additive identity.
func Dot[P sparse.Pointer, I sparse.Index, V sparse.Value](
	a, b *sparse.Tensor[P, I, V],
	ring semiring.Semiring[V],
) (v V, ok bool, err error) {
	c, err := mxm.Multiply(a, b, nil, false, ring, parallel.DefaultConfig())
	if err != nil {
		return v, false, err
	}
	if c.NumVals() == 0 {
		return ring.AddIdentity, false, nil
	}
	return c.Values()[0], true, nil
}
