package sparse

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch indicates operand extents that cannot be combined.
	ErrShapeMismatch = errors.New("sparse: shape mismatch")
	// ErrUnsupported indicates an operation invoked on a rank, dimension
	// kind, or width combination it does not implement. It signals a
	// programming error at the call site, not a data error.
	ErrUnsupported = errors.New("sparse: unsupported configuration")
	// ErrDuplicateCoordinate indicates a coordinate list containing the
	// same position twice with no merge function supplied.
	ErrDuplicateCoordinate = errors.New("sparse: duplicate coordinate")
	// ErrExhausted indicates a buffer could not be grown to the
	// requested length.
	ErrExhausted = errors.New("sparse: buffer capacity exhausted")
)

// InvariantClass identifies which structural invariant a tensor violates.
type InvariantClass int

// Invariant classes reported by Verify.
const (
	DimOrderNotPermutation InvariantClass = iota
	PointersNotMonotone
	PointerOriginNonzero
	PointerTerminalMismatch
	IndicesNotIncreasing
	IndexOutOfRange
	ValueCountMismatch
)

// String returns a human-readable invariant class name.
func (c InvariantClass) String() string {
	switch c {
	case DimOrderNotPermutation:
		return "dim order not a permutation"
	case PointersNotMonotone:
		return "pointers not non-decreasing"
	case PointerOriginNonzero:
		return "first pointer entry nonzero"
	case PointerTerminalMismatch:
		return "last pointer entry does not match index count"
	case IndicesNotIncreasing:
		return "indices not strictly increasing within segment"
	case IndexOutOfRange:
		return "index exceeds dimension extent"
	case ValueCountMismatch:
		return "value count does not match nonzero count"
	default:
		return "unknown"
	}
}

// IntegrityError reports one violated structural invariant. It is
// diagnostic: Verify collects these rather than failing fast, so tests
// can see every broken invariant at once.
type IntegrityError struct {
	Class  InvariantClass
	Dim    int    // offending storage dimension, -1 if tensor-wide
	Detail string // free-form context, may be empty
}

// Error implements the error interface.
func (e IntegrityError) Error() string {
	if e.Dim < 0 {
		if e.Detail == "" {
			return fmt.Sprintf("sparse: integrity violation: %s", e.Class)
		}
		return fmt.Sprintf("sparse: integrity violation: %s (%s)", e.Class, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("sparse: integrity violation at dim %d: %s", e.Dim, e.Class)
	}
	return fmt.Sprintf("sparse: integrity violation at dim %d: %s (%s)", e.Dim, e.Class, e.Detail)
}
