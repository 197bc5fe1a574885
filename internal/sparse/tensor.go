package sparse

import "fmt"

// Tensor is a memory-resident sparse tensor using a storage scheme
// based on per-dimension dense/compressed annotations. One storage
// type covers every layout: a CSR matrix is [Dense, Compressed] with
// the identity dimension order, its CSC dual is the same annotation
// with the order flipped, and a sparse vector is a single Compressed
// dimension.
//
// P is the pointer (segment offset) width, I the coordinate width and
// V the stored scalar type. Unsupported width combinations are
// rejected by the type constraints at compile time; extents that do
// not fit the chosen widths are rejected by New at construction time.
//
// All buffers are exclusively owned: accessors hand out the live
// slices, and Dup produces an independent copy for callers that need a
// scratch target.
type Tensor[P Pointer, I Index, V Value] struct {
	sizes    []uint64 // per storage dimension extents
	dimOrder []int    // dimOrder[s] = logical dimension stored at s
	pointers [][]P    // empty for dense dimensions
	indices  [][]I
	values   []V
	cursor   []I // lexicographic insertion cursor, see LexInsert
}

// New creates an empty tensor. logicalSizes are the extents in logical
// dimension order, order[s] names the logical dimension stored at
// storage dimension s (nil means identity) and kinds annotates each
// storage dimension. Compressed dimensions start with a single zero
// pointer entry; callers grow buffers with the Resize operations.
func New[P Pointer, I Index, V Value](logicalSizes []uint64, order []int, kinds []DimKind) (*Tensor[P, I, V], error) {
	rank := len(logicalSizes)
	if rank == 0 {
		return nil, fmt.Errorf("%w: rank 0 tensor", ErrUnsupported)
	}
	if order == nil {
		order = make([]int, rank)
		for d := range order {
			order[d] = d
		}
	}
	if len(order) != rank || len(kinds) != rank {
		return nil, fmt.Errorf("%w: order/kind length %d/%d for rank %d",
			ErrShapeMismatch, len(order), len(kinds), rank)
	}
	seen := make([]bool, rank)
	for _, l := range order {
		if l < 0 || l >= rank || seen[l] {
			return nil, fmt.Errorf("%w: dim order %v is not a permutation", ErrUnsupported, order)
		}
		seen[l] = true
	}
	for d, sz := range logicalSizes {
		if sz == 0 {
			return nil, fmt.Errorf("%w: zero extent at dim %d", ErrShapeMismatch, d)
		}
		if sz-1 > maxIndex[I]() {
			return nil, fmt.Errorf("%w: extent %d exceeds index width", ErrUnsupported, sz)
		}
	}

	t := &Tensor[P, I, V]{
		sizes:    make([]uint64, rank),
		dimOrder: make([]int, rank),
		pointers: make([][]P, rank),
		indices:  make([][]I, rank),
		cursor:   make([]I, rank),
	}
	copy(t.dimOrder, order)
	for s := 0; s < rank; s++ {
		t.sizes[s] = logicalSizes[order[s]]
		if kinds[s] == Compressed {
			t.pointers[s] = []P{0}
			t.indices[s] = []I{}
		}
	}
	return t, nil
}

// FromCOO compresses a coordinate-scheme tensor into storage form. The
// source is sorted lexicographically by permuted coordinate, then built
// in a single recursive pass per dimension.
//
// merge decides what happens to entries sharing the exact same
// coordinates: if non-nil, duplicates are folded pairwise with merge;
// if nil, duplicates are an ErrDuplicateCoordinate error. Passing them
// through silently is never done, since the result could not satisfy
// the strictly-increasing index invariant.
func FromCOO[P Pointer, I Index, V Value](src *COO[I, V], kinds []DimKind, merge func(V, V) V) (*Tensor[P, I, V], error) {
	t, err := New[P, I, V](src.Sizes(), src.Perm(), kinds)
	if err != nil {
		return nil, err
	}
	src.Sort()
	elems, err := collapseDuplicates(src.Elements(), merge)
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if len(e.Coords) != t.Rank() {
			return nil, fmt.Errorf("%w: coordinate rank %d for rank %d tensor",
				ErrShapeMismatch, len(e.Coords), t.Rank())
		}
		for s := 0; s < t.Rank(); s++ {
			if uint64(e.Coords[t.dimOrder[s]]) >= t.sizes[s] {
				return nil, fmt.Errorf("%w: coordinate %d out of range for extent %d",
					ErrShapeMismatch, e.Coords[t.dimOrder[s]], t.sizes[s])
			}
		}
	}
	if len(elems) > 0 {
		t.values = make([]V, 0, len(elems))
		t.fromCOO(elems, 0, len(elems), 0)
	} else {
		t.endDim(0)
	}
	return t, nil
}

// collapseDuplicates folds or rejects equal-coordinate runs of a
// lexicographically sorted element list.
func collapseDuplicates[I Index, V Value](elems []Element[I, V], merge func(V, V) V) ([]Element[I, V], error) {
	out := elems[:0:0]
	for _, e := range elems {
		n := len(out)
		if n > 0 && sameCoords(out[n-1].Coords, e.Coords) {
			if merge == nil {
				return nil, fmt.Errorf("%w: %v", ErrDuplicateCoordinate, e.Coords)
			}
			out[n-1].Val = merge(out[n-1].Val, e.Val)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func sameCoords[I Index](a, b []I) bool {
	for d := range a {
		if a[d] != b[d] {
			return false
		}
	}
	return true
}

// fromCOO builds pointers/indices/values for dimension d from the
// sorted elements in [lo, hi). Coordinates are logical and read
// through the dimension order.
func (t *Tensor[P, I, V]) fromCOO(elems []Element[I, V], lo, hi, d int) {
	if d == t.Rank() {
		t.values = append(t.values, elems[lo].Val)
		return
	}
	logical := t.dimOrder[d]
	full := uint64(0)
	for lo < hi {
		// Find the segment sharing this dimension's coordinate.
		i := elems[lo].Coords[logical]
		seg := lo + 1
		for seg < hi && elems[seg].Coords[logical] == i {
			seg++
		}
		if t.IsCompressedDim(d) {
			t.indices[d] = append(t.indices[d], i)
		} else {
			// Dense storage fills every position between the previous
			// segment and this one.
			for ; full < uint64(i); full++ {
				t.endDim(d + 1)
			}
			full++
		}
		t.fromCOO(elems, lo, seg, d+1)
		lo = seg
	}
	if t.IsCompressedDim(d) {
		t.pointers[d] = append(t.pointers[d], P(len(t.indices[d])))
	} else {
		for ; full < t.sizes[d]; full++ {
			t.endDim(d + 1)
		}
	}
}

// endDim finalizes a dimension that holds no further entries.
func (t *Tensor[P, I, V]) endDim(d int) {
	if d == t.Rank() {
		var zero V
		t.values = append(t.values, zero)
		return
	}
	if t.IsCompressedDim(d) {
		t.pointers[d] = append(t.pointers[d], P(len(t.indices[d])))
		return
	}
	for full := uint64(0); full < t.sizes[d]; full++ {
		t.endDim(d + 1)
	}
}

// Rank returns the number of dimensions.
func (t *Tensor[P, I, V]) Rank() int { return len(t.sizes) }

// DimSize returns the extent of storage dimension d.
func (t *Tensor[P, I, V]) DimSize(d int) uint64 { return t.sizes[d] }

// DimOrder returns the storage-to-logical dimension permutation.
func (t *Tensor[P, I, V]) DimOrder() []int { return t.dimOrder }

// LogicalSizes returns the extents in logical dimension order.
func (t *Tensor[P, I, V]) LogicalSizes() []uint64 {
	ls := make([]uint64, t.Rank())
	for s, l := range t.dimOrder {
		ls[l] = t.sizes[s]
	}
	return ls
}

// NumRows returns the extent of logical dimension 0 of a matrix.
func (t *Tensor[P, I, V]) NumRows() int { return int(t.logicalSize(0)) }

// NumCols returns the extent of logical dimension 1 of a matrix.
func (t *Tensor[P, I, V]) NumCols() int { return int(t.logicalSize(1)) }

// Size returns the extent of a vector.
func (t *Tensor[P, I, V]) Size() int { return int(t.sizes[0]) }

func (t *Tensor[P, I, V]) logicalSize(l int) uint64 {
	for s, m := range t.dimOrder {
		if m == l {
			return t.sizes[s]
		}
	}
	return 0
}

// IsRowMajor reports whether storage order matches logical order.
// Vectors are always row-major.
func (t *Tensor[P, I, V]) IsRowMajor() bool {
	for s, l := range t.dimOrder {
		if s != l {
			return false
		}
	}
	return true
}

// IsCompressedDim reports whether storage dimension d carries
// pointer/index buffers.
func (t *Tensor[P, I, V]) IsCompressedDim(d int) bool {
	return len(t.pointers[d]) != 0
}

// Pointers returns the live pointer buffer of compressed dimension d.
func (t *Tensor[P, I, V]) Pointers(d int) ([]P, error) {
	if d < 0 || d >= t.Rank() {
		return nil, fmt.Errorf("%w: pointers of dim %d on rank %d", ErrUnsupported, d, t.Rank())
	}
	if !t.IsCompressedDim(d) {
		return nil, fmt.Errorf("%w: pointers of dense dim %d", ErrUnsupported, d)
	}
	return t.pointers[d], nil
}

// Indices returns the live index buffer of compressed dimension d.
func (t *Tensor[P, I, V]) Indices(d int) ([]I, error) {
	if d < 0 || d >= t.Rank() {
		return nil, fmt.Errorf("%w: indices of dim %d on rank %d", ErrUnsupported, d, t.Rank())
	}
	if !t.IsCompressedDim(d) {
		return nil, fmt.Errorf("%w: indices of dense dim %d", ErrUnsupported, d)
	}
	return t.indices[d], nil
}

// Values returns the live value buffer.
func (t *Tensor[P, I, V]) Values() []V { return t.values }

// NumVals returns the stored entry count: the last pointer entry of
// the innermost compressed dimension, or the dense element count when
// no dimension is compressed.
func (t *Tensor[P, I, V]) NumVals() int {
	for d := t.Rank() - 1; d >= 0; d-- {
		if t.IsCompressedDim(d) {
			p := t.pointers[d]
			return int(p[len(p)-1])
		}
	}
	return len(t.values)
}

// Dup returns a deep copy with independently owned buffers.
func (t *Tensor[P, I, V]) Dup() *Tensor[P, I, V] {
	n := &Tensor[P, I, V]{
		sizes:    append([]uint64(nil), t.sizes...),
		dimOrder: append([]int(nil), t.dimOrder...),
		pointers: make([][]P, t.Rank()),
		indices:  make([][]I, t.Rank()),
		values:   append([]V(nil), t.values...),
		cursor:   append([]I(nil), t.cursor...),
	}
	for d := range t.pointers {
		if t.pointers[d] != nil {
			n.pointers[d] = append([]P{}, t.pointers[d]...)
		}
		if t.indices[d] != nil {
			n.indices[d] = append([]I{}, t.indices[d]...)
		}
	}
	return n
}

// AssignDimOrder overwrites one entry of the dimension order. This is
// the metadata half of a layout flip: no buffer is touched, only the
// interpretation changes. The result may transiently not be a
// permutation; Verify catches orders left inconsistent.
func (t *Tensor[P, I, V]) AssignDimOrder(storageDim, logicalDim int) error {
	if storageDim < 0 || storageDim >= t.Rank() || logicalDim < 0 || logicalDim >= t.Rank() {
		return fmt.Errorf("%w: assign dim order %d->%d on rank %d",
			ErrUnsupported, storageDim, logicalDim, t.Rank())
	}
	t.dimOrder[storageDim] = logicalDim
	return nil
}

// ReinterpretDimOrder replaces the whole dimension order without data
// movement. Flipping a CSR matrix this way yields the CSC form of its
// transpose: same buffers, dual interpretation.
func (t *Tensor[P, I, V]) ReinterpretDimOrder(order []int) error {
	if len(order) != t.Rank() {
		return fmt.Errorf("%w: order length %d for rank %d", ErrShapeMismatch, len(order), t.Rank())
	}
	seen := make([]bool, t.Rank())
	for _, l := range order {
		if l < 0 || l >= t.Rank() || seen[l] {
			return fmt.Errorf("%w: dim order %v is not a permutation", ErrUnsupported, order)
		}
		seen[l] = true
	}
	copy(t.dimOrder, order)
	return nil
}

// ResizePointers grows or shrinks the pointer buffer of compressed
// dimension d to n entries. Grown entries are zeroed.
func (t *Tensor[P, I, V]) ResizePointers(d, n int) error {
	if d < 0 || d >= t.Rank() || !t.IsCompressedDim(d) {
		return fmt.Errorf("%w: resize pointers of dim %d", ErrUnsupported, d)
	}
	t.pointers[d] = resizeZeroed(t.pointers[d], n)
	return nil
}

// ResizeIndex grows or shrinks the index buffer of compressed
// dimension d to n entries. Grown entries are zeroed.
func (t *Tensor[P, I, V]) ResizeIndex(d, n int) error {
	if d < 0 || d >= t.Rank() || !t.IsCompressedDim(d) {
		return fmt.Errorf("%w: resize indices of dim %d", ErrUnsupported, d)
	}
	if uint64(n) > maxPointer[P]() {
		return fmt.Errorf("%w: %d entries exceed pointer width", ErrExhausted, n)
	}
	t.indices[d] = resizeZeroed(t.indices[d], n)
	return nil
}

// ResizeValues grows or shrinks the value buffer to n entries. Grown
// entries are zeroed.
func (t *Tensor[P, I, V]) ResizeValues(n int) error {
	if uint64(n) > maxPointer[P]() {
		return fmt.Errorf("%w: %d entries exceed pointer width", ErrExhausted, n)
	}
	t.values = resizeZeroed(t.values, n)
	return nil
}

// ResizeDim overwrites the extent of storage dimension d.
func (t *Tensor[P, I, V]) ResizeDim(d int, extent uint64) error {
	if d < 0 || d >= t.Rank() {
		return fmt.Errorf("%w: resize dim %d on rank %d", ErrUnsupported, d, t.Rank())
	}
	if extent == 0 || extent-1 > maxIndex[I]() {
		return fmt.Errorf("%w: extent %d at dim %d", ErrUnsupported, extent, d)
	}
	t.sizes[d] = extent
	return nil
}

// resizeZeroed adjusts a slice to length n, zero-filling any grown
// region even when capacity is reused.
func resizeZeroed[T any](s []T, n int) []T {
	if n <= len(s) {
		return s[:n]
	}
	if n <= cap(s) {
		var zero T
		g := s[:n]
		for i := len(s); i < n; i++ {
			g[i] = zero
		}
		return g
	}
	g := make([]T, n)
	copy(g, s)
	return g
}

// ToCOO exports the stored entries back to coordinate scheme with
// logical coordinates, in storage traversal order (which is
// lexicographic for the storage permutation).
func (t *Tensor[P, I, V]) ToCOO() *COO[I, V] {
	out := NewCOO[I, V](t.LogicalSizes(), nil, len(t.values))
	coord := make([]I, t.Rank())
	t.toCOO(out, coord, 0, 0)
	return out
}

func (t *Tensor[P, I, V]) toCOO(out *COO[I, V], coord []I, pos, d int) {
	if d == t.Rank() {
		out.Add(coord, t.values[pos])
		return
	}
	logical := t.dimOrder[d]
	if t.IsCompressedDim(d) {
		for ii := int(t.pointers[d][pos]); ii < int(t.pointers[d][pos+1]); ii++ {
			coord[logical] = t.indices[d][ii]
			t.toCOO(out, coord, ii, d+1)
		}
		return
	}
	sz := int(t.sizes[d])
	for i := 0; i < sz; i++ {
		coord[logical] = I(i)
		t.toCOO(out, coord, pos*sz+i, d+1)
	}
}

// LexInsert appends one entry at the storage-order coordinates in
// cursor. Insertions must arrive in strictly increasing lexicographic
// order; EndInsert finalizes the pointer structure once all entries
// are in. This is the incremental dual of FromCOO for callers that
// already produce sorted streams.
func (t *Tensor[P, I, V]) LexInsert(cursor []I, val V) {
	diff, top := 0, uint64(0)
	if len(t.values) > 0 {
		diff = t.lexDiff(cursor)
		t.endPath(diff + 1)
		top = uint64(t.cursor[diff]) + 1
	}
	t.insPath(cursor, diff, top, val)
}

// EndInsert wraps up a LexInsert sequence.
func (t *Tensor[P, I, V]) EndInsert() {
	if len(t.values) == 0 {
		t.endDim(0)
		return
	}
	t.endPath(0)
}

// lexDiff finds the first dimension where cursor moves past the
// previous insertion path.
func (t *Tensor[P, I, V]) lexDiff(cursor []I) int {
	for d := 0; d < t.Rank(); d++ {
		if cursor[d] > t.cursor[d] {
			return d
		}
		if cursor[d] < t.cursor[d] {
			panic("sparse: non-lexicographic insertion")
		}
	}
	panic("sparse: duplicate insertion")
}

// endPath wraps up the pending insertion path from the innermost
// dimension out to diff.
func (t *Tensor[P, I, V]) endPath(diff int) {
	for d := t.Rank() - 1; d >= diff; d-- {
		if t.IsCompressedDim(d) {
			t.pointers[d] = append(t.pointers[d], P(len(t.indices[d])))
		} else {
			for full := uint64(t.cursor[d]) + 1; full < t.sizes[d]; full++ {
				t.endDim(d + 1)
			}
		}
	}
}

// insPath continues an insertion path from dimension diff inward.
func (t *Tensor[P, I, V]) insPath(cursor []I, diff int, top uint64, val V) {
	for d := diff; d < t.Rank(); d++ {
		i := cursor[d]
		if t.IsCompressedDim(d) {
			t.indices[d] = append(t.indices[d], i)
		} else {
			for full := top; full < uint64(i); full++ {
				t.endDim(d + 1)
			}
		}
		top = 0
		t.cursor[d] = i
	}
	t.values = append(t.values, val)
}
