// Copyright 2025 The grb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package sparse provides the public API for compressed sparse tensor
// storage in the grb library.
//
// The central type is Tensor[P, I, V], a rank-generic sparse tensor
// whose pointer, index and value widths are chosen independently as
// type parameters. A CSR matrix, its CSC dual and a sparse vector are
// all the same storage scheme under different per-dimension
// annotations and dimension orders.
//
// Example:
//
//	a, err := sparse.NewCSR[uint64, uint64, float64](2, 4,
//	    []int{0, 0, 1}, []int{1, 2, 3}, []float64{1, 2, 3})
//	if err != nil { ... }
//	csc, err := a.ConvertLayout([]int{1, 0})
package sparse

import (
	"github.com/grb-go/grb/internal/sparse"
)

// Pointer is a constraint for pointer (segment offset) storage widths.
type Pointer = sparse.Pointer

// Index is a constraint for coordinate storage widths.
type Index = sparse.Index

// Value is a constraint for stored scalar types.
type Value = sparse.Value

// DimKind annotates how one storage dimension is represented.
type DimKind = sparse.DimKind

// Per-dimension storage annotations.
const (
	Dense      DimKind = sparse.Dense
	Compressed DimKind = sparse.Compressed
)

// Tensor is a compressed sparse tensor with exclusively owned buffers.
type Tensor[P Pointer, I Index, V Value] = sparse.Tensor[P, I, V]

// COO is a coordinate-scheme staging tensor for unsorted input.
type COO[I Index, V Value] = sparse.COO[I, V]

// Element is one stored entry of a COO tensor.
type Element[I Index, V Value] = sparse.Element[I, V]

// IntegrityError reports one violated structural invariant.
type IntegrityError = sparse.IntegrityError

// InvariantClass identifies which invariant a tensor violates.
type InvariantClass = sparse.InvariantClass

// Invariant classes reported by Verify.
const (
	DimOrderNotPermutation  InvariantClass = sparse.DimOrderNotPermutation
	PointersNotMonotone     InvariantClass = sparse.PointersNotMonotone
	PointerOriginNonzero    InvariantClass = sparse.PointerOriginNonzero
	PointerTerminalMismatch InvariantClass = sparse.PointerTerminalMismatch
	IndicesNotIncreasing    InvariantClass = sparse.IndicesNotIncreasing
	IndexOutOfRange         InvariantClass = sparse.IndexOutOfRange
	ValueCountMismatch      InvariantClass = sparse.ValueCountMismatch
)

// Sentinel errors surfaced by the storage engine.
var (
	ErrShapeMismatch       = sparse.ErrShapeMismatch
	ErrUnsupported         = sparse.ErrUnsupported
	ErrDuplicateCoordinate = sparse.ErrDuplicateCoordinate
	ErrExhausted           = sparse.ErrExhausted
)

// New creates an empty tensor with the given logical extents, storage
// order (nil for identity) and per-dimension annotations.
func New[P Pointer, I Index, V Value](logicalSizes []uint64, order []int, kinds []DimKind) (*Tensor[P, I, V], error) {
	return sparse.New[P, I, V](logicalSizes, order, kinds)
}

// NewCOO creates an empty coordinate-scheme tensor.
func NewCOO[I Index, V Value](sizes []uint64, perm []int, capacity int) *COO[I, V] {
	return sparse.NewCOO[I, V](sizes, perm, capacity)
}

// FromCOO compresses a coordinate-scheme tensor. merge folds entries
// sharing the same coordinates; nil rejects duplicates.
func FromCOO[P Pointer, I Index, V Value](src *COO[I, V], kinds []DimKind, merge func(V, V) V) (*Tensor[P, I, V], error) {
	return sparse.FromCOO[P, I, V](src, kinds, merge)
}

// NewCSR builds a row-major matrix from parallel coordinate slices.
// Duplicate coordinates are rejected.
//
// Example:
//
//	// [[0 1 2 0]
//	//  [0 0 0 3]]
//	a, err := sparse.NewCSR[uint64, uint64, float64](2, 4,
//	    []int{0, 0, 1}, []int{1, 2, 3}, []float64{1, 2, 3})
func NewCSR[P Pointer, I Index, V Value](nrows, ncols int, rows, cols []int, vals []V) (*Tensor[P, I, V], error) {
	return matrixFromTriples[P, I, V](nrows, ncols, rows, cols, vals, nil)
}

// NewCSC builds a column-major matrix from parallel coordinate slices.
// Duplicate coordinates are rejected.
func NewCSC[P Pointer, I Index, V Value](nrows, ncols int, rows, cols []int, vals []V) (*Tensor[P, I, V], error) {
	return matrixFromTriples[P, I, V](nrows, ncols, rows, cols, vals, []int{1, 0})
}

// NewVector builds a sparse vector from parallel coordinate slices.
// Duplicate coordinates are rejected.
func NewVector[P Pointer, I Index, V Value](size int, idx []int, vals []V) (*Tensor[P, I, V], error) {
	if len(idx) != len(vals) {
		return nil, ErrShapeMismatch
	}
	coo := sparse.NewCOO[I, V]([]uint64{uint64(size)}, nil, len(idx))
	for n := range idx {
		coo.Add([]I{I(idx[n])}, vals[n])
	}
	return sparse.FromCOO[P, I, V](coo, []DimKind{Compressed}, nil)
}

func matrixFromTriples[P Pointer, I Index, V Value](nrows, ncols int, rows, cols []int, vals []V, order []int) (*Tensor[P, I, V], error) {
	if len(rows) != len(cols) || len(rows) != len(vals) {
		return nil, ErrShapeMismatch
	}
	coo := sparse.NewCOO[I, V]([]uint64{uint64(nrows), uint64(ncols)}, order, len(vals))
	for n := range rows {
		coo.Add([]I{I(rows[n]), I(cols[n])}, vals[n])
	}
	return sparse.FromCOO[P, I, V](coo, []DimKind{Dense, Compressed}, nil)
}
