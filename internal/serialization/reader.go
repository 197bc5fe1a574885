package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/grb-go/grb/internal/sparse"
)

// ReaderOptions configures loading behavior.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Header and structure validation strictness
}

// fileLayout is the parsed fixed header plus the in-memory data area.
type fileLayout struct {
	header Header
	flags  uint32
	data   []byte
}

// ReadHeader parses the header of a .grb file without decoding any
// tensor, for inspection tooling.
func ReadHeader(path string) (*Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header, _, _, err := parseHeader(file)
	if err != nil {
		return nil, err
	}
	return header, nil
}

// Load reads every tensor from a .grb file under strict validation.
// All tensors in one file share the width and value type parameters;
// a file whose stored widths disagree is rejected with
// ErrWidthMismatch or ErrValueTypeMismatch.
func Load[P sparse.Pointer, I sparse.Index, V sparse.Value](path string) (map[string]*sparse.Tensor[P, I, V], error) {
	return LoadWithOptions[P, I, V](path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// LoadWithOptions reads every tensor from a .grb file.
func LoadWithOptions[P sparse.Pointer, I sparse.Index, V sparse.Value](
	path string,
	opts ReaderOptions,
) (map[string]*sparse.Tensor[P, I, V], error) {
	layout, err := openLayout(path, opts)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*sparse.Tensor[P, I, V], len(layout.header.Tensors))
	for _, meta := range layout.header.Tensors {
		t, err := decodeTensor[P, I, V](meta, layout.data, opts.ValidationLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to decode tensor %q: %w", meta.Name, err)
		}
		out[meta.Name] = t
	}
	return out, nil
}

// LoadOne reads a single named tensor from a .grb file.
func LoadOne[P sparse.Pointer, I sparse.Index, V sparse.Value](path, name string) (*sparse.Tensor[P, I, V], error) {
	layout, err := openLayout(path, ReaderOptions{ValidationLevel: ValidationStrict})
	if err != nil {
		return nil, err
	}
	for _, meta := range layout.header.Tensors {
		if meta.Name == name {
			t, err := decodeTensor[P, I, V](meta, layout.data, ValidationStrict)
			if err != nil {
				return nil, fmt.Errorf("failed to decode tensor %q: %w", name, err)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTensorNotFound, name)
}

// openLayout parses the header, reads the data area and runs the
// requested validation.
func openLayout(path string, opts ReaderOptions) (*fileLayout, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header, flags, dataOffset, err := parseHeader(file)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	dataSize := info.Size() - dataOffset
	if dataSize < 0 {
		return nil, fmt.Errorf("%w: truncated data area", ErrOutOfBounds)
	}

	if err := ValidateHeader(header, dataSize, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := file.Seek(dataOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to data area: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read data area: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(data), header.Checksum); err != nil {
			return nil, err
		}
	}
	return &fileLayout{header: *header, flags: flags, data: data}, nil
}

// parseHeader reads the fixed fields and the JSON header, returning
// the offset of the aligned data area.
func parseHeader(file *os.File) (*Header, uint32, int64, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(file, magic); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, 0, 0, ErrInvalidMagic
	}

	var version uint32
	if err := binary.Read(file, binary.LittleEndian, &version); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return nil, 0, 0, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	var flags uint32
	if err := binary.Read(file, binary.LittleEndian, &flags); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read flags: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(file, binary.LittleEndian, &headerSize); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, 0, 0, ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(file, headerBytes); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	pos := int64(4+4+4+8) + int64(headerSize)
	dataOffset := pos + (DataAlignment-(pos%DataAlignment))%DataAlignment
	return &header, flags, dataOffset, nil
}

// decodeTensor rebuilds one tensor from its header entry and the data
// area.
func decodeTensor[P sparse.Pointer, I sparse.Index, V sparse.Value](
	meta TensorMeta,
	data []byte,
	level ValidationLevel,
) (*sparse.Tensor[P, I, V], error) {
	if meta.ValueType != valueTypeOf[V]() {
		return nil, fmt.Errorf("%w: stored %s", ErrValueTypeMismatch, meta.ValueType)
	}
	if meta.PointerWidth != pointerWidthOf[P]() || meta.IndexWidth != indexWidthOf[I]() {
		return nil, fmt.Errorf("%w: stored %d/%d byte pointers/indices",
			ErrWidthMismatch, meta.PointerWidth, meta.IndexWidth)
	}
	kinds, ok := parseKinds(meta.DimKinds)
	if !ok {
		return nil, &ValidationError{Type: "bad_dim_kind", Tensor: meta.Name, Details: fmt.Sprintf("%v", meta.DimKinds)}
	}

	t, err := sparse.New[P, I, V](meta.Sizes, meta.DimOrder, kinds)
	if err != nil {
		return nil, err
	}

	for _, sec := range meta.Sections {
		if sec.Offset < 0 || sec.Size < 0 || sec.Offset+sec.Size > int64(len(data)) {
			return nil, fmt.Errorf("%w: %s section of %q", ErrOutOfBounds, sec.Role, meta.Name)
		}
		body := data[sec.Offset : sec.Offset+sec.Size]
		switch sec.Role {
		case SectionPointers:
			if err := t.ResizePointers(sec.Dim, int(sec.Count)); err != nil {
				return nil, err
			}
			buf, err := t.Pointers(sec.Dim)
			if err != nil {
				return nil, err
			}
			if err := readSection(body, buf); err != nil {
				return nil, err
			}
		case SectionIndices:
			if err := t.ResizeIndex(sec.Dim, int(sec.Count)); err != nil {
				return nil, err
			}
			buf, err := t.Indices(sec.Dim)
			if err != nil {
				return nil, err
			}
			if err := readSection(body, buf); err != nil {
				return nil, err
			}
		case SectionValues:
			if err := t.ResizeValues(int(sec.Count)); err != nil {
				return nil, err
			}
			if err := readSection(body, t.Values()); err != nil {
				return nil, err
			}
		default:
			return nil, &ValidationError{Type: "bad_section_role", Tensor: meta.Name, Section: sec.Role}
		}
	}

	if level == ValidationStrict {
		if violations := t.Verify(); violations != nil {
			return nil, &ValidationError{
				Type:    "integrity",
				Tensor:  meta.Name,
				Details: violations[0].Error(),
			}
		}
	}
	return t, nil
}

// readSection decodes one little-endian buffer.
func readSection[T any](body []byte, buf []T) error {
	if len(buf) == 0 {
		return nil
	}
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("failed to decode section: %w", err)
	}
	return nil
}
