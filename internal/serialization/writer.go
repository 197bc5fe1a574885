package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/grb-go/grb/internal/sparse"
)

const grbVersion = "0.1.0" // Current grb version

// Save writes the named tensors to path in .grb format. Names are
// emitted in sorted order, so identical inputs produce identical files
// apart from the creation timestamp.
func Save[P sparse.Pointer, I sparse.Index, V sparse.Value](
	path string,
	tensors map[string]*sparse.Tensor[P, I, V],
	metadata map[string]string,
) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if len(name) > MaxTensorNameLen {
			return fmt.Errorf("%w: %d bytes", ErrTensorNameTooLong, len(name))
		}
		names = append(names, name)
	}
	if len(names) > MaxTensorCount {
		return fmt.Errorf("%w: %d", ErrTooManyTensors, len(names))
	}
	sort.Strings(names)

	var data bytes.Buffer
	metas := make([]TensorMeta, 0, len(names))
	for _, name := range names {
		meta, err := appendTensor(&data, name, tensors[name])
		if err != nil {
			return fmt.Errorf("failed to encode tensor %q: %w", name, err)
		}
		metas = append(metas, meta)
	}

	header := Header{
		FormatVersion: FormatVersion,
		GrbVersion:    grbVersion,
		CreatedAt:     time.Now().UTC(),
		Checksum:      EncodeChecksum(ComputeChecksum(data.Bytes())),
		Tensors:       metas,
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if err := binary.Write(file, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	pos := int64(4+4+4+8) + int64(len(headerJSON))
	padding := (DataAlignment - (pos % DataAlignment)) % DataAlignment
	if padding > 0 {
		if _, err := file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := file.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write section data: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	return file.Close()
}

// SaveOne writes a single tensor under the given name.
func SaveOne[P sparse.Pointer, I sparse.Index, V sparse.Value](
	path, name string,
	t *sparse.Tensor[P, I, V],
	metadata map[string]string,
) error {
	return Save(path, map[string]*sparse.Tensor[P, I, V]{name: t}, metadata)
}

// appendTensor encodes one tensor's buffers into the data area and
// returns its header entry.
func appendTensor[P sparse.Pointer, I sparse.Index, V sparse.Value](
	data *bytes.Buffer,
	name string,
	t *sparse.Tensor[P, I, V],
) (TensorMeta, error) {
	meta := TensorMeta{
		Name:         name,
		ValueType:    valueTypeOf[V](),
		PointerWidth: pointerWidthOf[P](),
		IndexWidth:   indexWidthOf[I](),
		Sizes:        t.LogicalSizes(),
		DimOrder:     append([]int(nil), t.DimOrder()...),
		DimKinds:     kindStrings(t),
	}

	for d := 0; d < t.Rank(); d++ {
		if !t.IsCompressedDim(d) {
			continue
		}
		ptr, err := t.Pointers(d)
		if err != nil {
			return meta, err
		}
		sec, err := appendSection(data, SectionPointers, d, ptr)
		if err != nil {
			return meta, err
		}
		meta.Sections = append(meta.Sections, sec)

		idx, err := t.Indices(d)
		if err != nil {
			return meta, err
		}
		sec, err = appendSection(data, SectionIndices, d, idx)
		if err != nil {
			return meta, err
		}
		meta.Sections = append(meta.Sections, sec)
	}

	sec, err := appendSection(data, SectionValues, -1, t.Values())
	if err != nil {
		return meta, err
	}
	meta.Sections = append(meta.Sections, sec)
	return meta, nil
}

// appendSection writes one buffer little-endian and records its
// location relative to the start of the data area.
func appendSection[T any](data *bytes.Buffer, role string, dim int, buf []T) (SectionMeta, error) {
	offset := int64(data.Len())
	if len(buf) > 0 {
		if err := binary.Write(data, binary.LittleEndian, buf); err != nil {
			return SectionMeta{}, fmt.Errorf("failed to encode %s section: %w", role, err)
		}
	}
	return SectionMeta{
		Role:   role,
		Dim:    dim,
		Count:  int64(len(buf)),
		Offset: offset,
		Size:   int64(data.Len()) - offset,
	}, nil
}
