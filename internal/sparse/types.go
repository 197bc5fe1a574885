// Package sparse provides the compressed sparse tensor storage engine
// for the grb library.
package sparse

import "math"

// Pointer is a constraint for pointer (segment offset) storage widths.
type Pointer interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Index is a constraint for coordinate storage widths.
type Index interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Value is a constraint for stored scalar types.
//
// bool is deliberately excluded: boolean masks participate in
// multiplication through their index structure only, so a mask is an
// ordinary Tensor whose values are ignored.
type Value interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// DimKind annotates how one storage dimension is represented.
type DimKind int

// Supported per-dimension storage annotations.
const (
	// Dense dimensions carry no pointer/index buffers.
	Dense DimKind = iota
	// Compressed dimensions are represented by pointer+index buffers.
	Compressed
)

// String returns a human-readable annotation name.
func (k DimKind) String() string {
	switch k {
	case Dense:
		return "dense"
	case Compressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// maxIndex returns the largest coordinate representable by the index
// width I. Used to reject extents at construction time rather than
// overflowing at first use.
func maxIndex[I Index]() uint64 {
	var dummy I
	switch any(dummy).(type) {
	case uint8:
		return math.MaxUint8
	case uint16:
		return math.MaxUint16
	case uint32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// maxPointer returns the largest offset representable by the pointer
// width P.
func maxPointer[P Pointer]() uint64 {
	var dummy P
	switch any(dummy).(type) {
	case uint8:
		return math.MaxUint8
	case uint16:
		return math.MaxUint16
	case uint32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}
