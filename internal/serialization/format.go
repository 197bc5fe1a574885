package serialization

import (
	"time"

	"github.com/grb-go/grb/internal/sparse"
)

// Format constants.
const (
	MagicBytes    = "GRBT"
	FormatVersion = 1
	DataAlignment = 64 // Align section data to 64 bytes.
)

// Value type string constants for serialization.
const (
	VTypeInt8    = "int8"
	VTypeInt16   = "int16"
	VTypeInt32   = "int32"
	VTypeInt64   = "int64"
	VTypeUint8   = "uint8"
	VTypeUint16  = "uint16"
	VTypeUint32  = "uint32"
	VTypeUint64  = "uint64"
	VTypeFloat32 = "float32"
	VTypeFloat64 = "float64"
)

// Dimension annotation string constants.
const (
	KindDense      = "dense"
	KindCompressed = "compressed"
)

// Section roles.
const (
	SectionPointers = "pointers"
	SectionIndices  = "indices"
	SectionValues   = "values"
)

// Flags for the .grb format.
const (
	FlagHasMetadata uint32 = 1 << 0 // bit 0: custom metadata included
)

// Header represents the JSON header in a .grb file.
type Header struct {
	FormatVersion int               `json:"format_version"` // Version of the .grb format
	GrbVersion    string            `json:"grb_version"`    // Version of grb that created this file
	CreatedAt     time.Time         `json:"created_at"`     // When the file was created
	Checksum      string            `json:"checksum"`       // Hex SHA-256 of the section data
	Tensors       []TensorMeta      `json:"tensors"`        // Tensor metadata
	Metadata      map[string]string `json:"metadata"`       // Custom metadata
}

// TensorMeta describes one sparse tensor in a .grb file.
type TensorMeta struct {
	Name         string        `json:"name"`
	ValueType    string        `json:"value_type"`
	PointerWidth int           `json:"pointer_width"` // bytes per pointer entry
	IndexWidth   int           `json:"index_width"`   // bytes per index entry
	Sizes        []uint64      `json:"sizes"`         // logical extents
	DimOrder     []int         `json:"dim_order"`
	DimKinds     []string      `json:"dim_kinds"`
	Sections     []SectionMeta `json:"sections"`
}

// SectionMeta locates one buffer inside the data area.
type SectionMeta struct {
	Role   string `json:"role"` // pointers, indices or values
	Dim    int    `json:"dim"`  // storage dimension; -1 for values
	Count  int64  `json:"count"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

// valueTypeOf maps the value type parameter to its header string.
func valueTypeOf[V sparse.Value]() string {
	var dummy V
	switch any(dummy).(type) {
	case int8:
		return VTypeInt8
	case int16:
		return VTypeInt16
	case int32:
		return VTypeInt32
	case int64:
		return VTypeInt64
	case uint8:
		return VTypeUint8
	case uint16:
		return VTypeUint16
	case uint32:
		return VTypeUint32
	case uint64:
		return VTypeUint64
	case float32:
		return VTypeFloat32
	default:
		return VTypeFloat64
	}
}

// pointerWidthOf returns bytes per pointer entry of P.
func pointerWidthOf[P sparse.Pointer]() int {
	var dummy P
	switch any(dummy).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// indexWidthOf returns bytes per index entry of I.
func indexWidthOf[I sparse.Index]() int {
	var dummy I
	switch any(dummy).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

// kindStrings maps per-dimension annotations to header strings.
func kindStrings[P sparse.Pointer, I sparse.Index, V sparse.Value](t *sparse.Tensor[P, I, V]) []string {
	kinds := make([]string, t.Rank())
	for d := range kinds {
		if t.IsCompressedDim(d) {
			kinds[d] = KindCompressed
		} else {
			kinds[d] = KindDense
		}
	}
	return kinds
}

// parseKinds decodes header kind strings back to annotations.
func parseKinds(names []string) ([]sparse.DimKind, bool) {
	kinds := make([]sparse.DimKind, len(names))
	for d, n := range names {
		switch n {
		case KindDense:
			kinds[d] = sparse.Dense
		case KindCompressed:
			kinds[d] = sparse.Compressed
		default:
			return nil, false
		}
	}
	return kinds, true
}
