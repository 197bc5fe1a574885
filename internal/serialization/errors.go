package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrSectionOverlap     = errors.New("tensor sections overlap")
	ErrOutOfBounds        = errors.New("section extends beyond data area")
	ErrTooManyTensors     = errors.New("too many tensors in file")
	ErrTensorNameTooLong  = errors.New("tensor name too long")
	ErrWidthMismatch      = errors.New("stored widths do not match requested type parameters")
	ErrValueTypeMismatch  = errors.New("stored value type does not match requested type parameter")
	ErrTensorNotFound     = errors.New("tensor not found in file")
)

// ValidationError provides detailed information about header validation
// failures.
type ValidationError struct {
	Type    string // Kind of failure (e.g., "section_overlap", "out_of_bounds")
	Tensor  string // Tensor name involved
	Section string // Section role involved, if any
	Details string // Additional details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("%s: tensor %q section %s: %s", e.Type, e.Tensor, e.Section, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}
