package serialization

import (
	"fmt"
	"sort"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all checks, including structural
	// integrity of every decoded tensor (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal performs header and bounds checks only.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// sectionRef pairs a section with its owning tensor for error
// reporting.
type sectionRef struct {
	tensor string
	sec    SectionMeta
}

// ValidateHeader checks the parsed header against the actual data area
// size. Malformed offsets could otherwise read out of bounds or alias
// two tensors onto the same bytes.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
		}
	}

	var all []sectionRef
	for i := range h.Tensors {
		meta := &h.Tensors[i]
		if len(meta.Name) > MaxTensorNameLen {
			return &ValidationError{
				Type:    "name_too_long",
				Tensor:  meta.Name[:64],
				Details: fmt.Sprintf("%d bytes, max %d", len(meta.Name), MaxTensorNameLen),
			}
		}
		if err := validateShape(meta); err != nil {
			return err
		}
		for _, sec := range meta.Sections {
			all = append(all, sectionRef{tensor: meta.Name, sec: sec})
		}
	}

	// Sort sections by offset for overlap detection.
	sort.Slice(all, func(i, j int) bool { return all[i].sec.Offset < all[j].sec.Offset })
	var prev *sectionRef
	for i := range all {
		ref := &all[i]
		if ref.sec.Offset < 0 || ref.sec.Size < 0 || ref.sec.Count < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  ref.tensor,
				Section: ref.sec.Role,
				Details: fmt.Sprintf("offset=%d size=%d count=%d", ref.sec.Offset, ref.sec.Size, ref.sec.Count),
			}
		}
		if ref.sec.Offset+ref.sec.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  ref.tensor,
				Section: ref.sec.Role,
				Details: fmt.Sprintf("offset=%d size=%d dataSize=%d", ref.sec.Offset, ref.sec.Size, dataSize),
			}
		}
		if prev != nil && ref.sec.Offset < prev.sec.Offset+prev.sec.Size {
			return &ValidationError{
				Type:    "section_overlap",
				Tensor:  ref.tensor,
				Section: ref.sec.Role,
				Details: fmt.Sprintf("overlaps %s section of %q", prev.sec.Role, prev.tensor),
			}
		}
		prev = ref
	}
	return nil
}

// validateShape checks the per-tensor metadata for internal
// consistency: matching rank across fields and section sizes agreeing
// with the declared widths.
func validateShape(meta *TensorMeta) error {
	rank := len(meta.Sizes)
	if rank == 0 || len(meta.DimOrder) != rank || len(meta.DimKinds) != rank {
		return &ValidationError{
			Type:    "bad_shape",
			Tensor:  meta.Name,
			Details: fmt.Sprintf("sizes/order/kinds lengths %d/%d/%d", rank, len(meta.DimOrder), len(meta.DimKinds)),
		}
	}
	for _, sec := range meta.Sections {
		var width int64
		switch sec.Role {
		case SectionPointers:
			width = int64(meta.PointerWidth)
		case SectionIndices:
			width = int64(meta.IndexWidth)
		case SectionValues:
			width = valueTypeSize(meta.ValueType)
		default:
			return &ValidationError{Type: "bad_section_role", Tensor: meta.Name, Section: sec.Role}
		}
		if sec.Role != SectionValues && (sec.Dim < 0 || sec.Dim >= rank) {
			return &ValidationError{
				Type:    "bad_section_dim",
				Tensor:  meta.Name,
				Section: sec.Role,
				Details: fmt.Sprintf("dim %d for rank %d", sec.Dim, rank),
			}
		}
		if width <= 0 || sec.Count*width != sec.Size {
			return &ValidationError{
				Type:    "bad_section_size",
				Tensor:  meta.Name,
				Section: sec.Role,
				Details: fmt.Sprintf("count=%d width=%d size=%d", sec.Count, width, sec.Size),
			}
		}
	}
	return nil
}

// valueTypeSize returns bytes per stored value for a header value type
// string, or 0 for an unknown type.
func valueTypeSize(vt string) int64 {
	switch vt {
	case VTypeInt8, VTypeUint8:
		return 1
	case VTypeInt16, VTypeUint16:
		return 2
	case VTypeInt32, VTypeUint32, VTypeFloat32:
		return 4
	case VTypeInt64, VTypeUint64, VTypeFloat64:
		return 8
	default:
		return 0
	}
}
