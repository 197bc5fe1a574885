// Copyright 2025 The grb Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package semiring defines the operator bundles that parameterize
// sparse multiplication in the grb library.
//
// A semiring supplies three slots: the additive identity, the additive
// combine (an associative, commutative fold) and the multiplicative
// combine. The multiplication engine is agnostic to which ring is
// used as long as all three slots are filled, so callers may pass any
// of the built-ins below or construct their own from closures.
//
// Example:
//
//	ring := semiring.MinPlus[float64]()
//	c, err := mxm.Multiply(a, b, nil, false, ring)
package semiring

import (
	"math"

	"github.com/grb-go/grb/sparse"
)

// Semiring bundles the three operator slots over the value domain V.
//
// Mult receives the two operand values plus the contraction index k
// at which they overlap, so rings like AnyOverlap can emit positional
// results. Ordinary arithmetic rings ignore k.
type Semiring[V sparse.Value] struct {
	AddIdentity V
	Add         func(x, y V) V
	Mult        func(a, b V, k int) V
}

// PlusTimes is standard arithmetic: identity 0, combine +, multiply *.
func PlusTimes[V sparse.Value]() Semiring[V] {
	return Semiring[V]{
		Add:  func(x, y V) V { return x + y },
		Mult: func(a, b V, _ int) V { return a * b },
	}
}

// MinPlus is the tropical ring used for shortest paths: identity +inf,
// combine min, multiply +.
func MinPlus[V sparse.Value]() Semiring[V] {
	return Semiring[V]{
		AddIdentity: maxOf[V](),
		Add: func(x, y V) V {
			if y < x {
				return y
			}
			return x
		},
		Mult: func(a, b V, _ int) V { return a + b },
	}
}

// PlusPlus combines with + in both slots, summing all overlapping
// operand values.
func PlusPlus[V sparse.Value]() Semiring[V] {
	return Semiring[V]{
		Add:  func(x, y V) V { return x + y },
		Mult: func(a, b V, _ int) V { return a + b },
	}
}

// PlusPair counts structural overlaps: every multiplicative combine
// yields 1 regardless of the operand values.
func PlusPair[V sparse.Value]() Semiring[V] {
	return Semiring[V]{
		Add:  func(x, y V) V { return x + y },
		Mult: func(_, _ V, _ int) V { return 1 },
	}
}

// AnyPair detects structural overlap: any single pair contributes 1
// and the additive combine keeps whichever argument arrives.
func AnyPair[V sparse.Value]() Semiring[V] {
	return Semiring[V]{
		Add:  func(_, y V) V { return y },
		Mult: func(_, _ V, _ int) V { return 1 },
	}
}

// AnyOverlap yields the contraction index of any overlapping pair,
// the building block for parent tracking in BFS-style traversals.
func AnyOverlap[V sparse.Value]() Semiring[V] {
	return Semiring[V]{
		Add:  func(_, y V) V { return y },
		Mult: func(_, _ V, k int) V { return V(k) },
	}
}

// maxOf returns the largest representable value of V, the additive
// identity of min-based rings.
func maxOf[V sparse.Value]() V {
	var dummy V
	switch any(dummy).(type) {
	case float32, float64:
		return V(math.Inf(1))
	case uint64:
		m := uint64(math.MaxUint64)
		return V(m)
	default:
		var m int64
		switch any(dummy).(type) {
		case int8:
			m = math.MaxInt8
		case int16:
			m = math.MaxInt16
		case int32:
			m = math.MaxInt32
		case int64:
			m = math.MaxInt64
		case uint8:
			m = math.MaxUint8
		case uint16:
			m = math.MaxUint16
		case uint32:
			m = math.MaxUint32
		}
		return V(m)
	}
}
