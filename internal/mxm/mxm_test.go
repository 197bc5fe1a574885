package mxm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grb-go/grb/internal/parallel"
	"github.com/grb-go/grb/internal/sparse"
	"github.com/grb-go/grb/semiring"
)

// Test fixtures
//
// A = [[0 1 2 0]     B = [[0 7]
//      [0 0 0 3]]         [4 0]
//                         [5 0]
//                         [6 8]]
//
// A*B (plus-times) = [[14  0]
//                     [18 24]]

func buildMatrix(t *testing.T, nrows, ncols int, order []int, rows, cols []int, vals []float64) *sparse.Tensor[uint64, uint64, float64] {
	t.Helper()
	coo := sparse.NewCOO[uint64, float64]([]uint64{uint64(nrows), uint64(ncols)}, order, len(vals))
	for n := range rows {
		coo.Add([]uint64{uint64(rows[n]), uint64(cols[n])}, vals[n])
	}
	m, err := sparse.FromCOO[uint64, uint64, float64](coo, []sparse.DimKind{sparse.Dense, sparse.Compressed}, nil)
	require.NoError(t, err)
	return m
}

func buildVector(t *testing.T, size int, idx []int, vals []float64) *sparse.Tensor[uint64, uint64, float64] {
	t.Helper()
	coo := sparse.NewCOO[uint64, float64]([]uint64{uint64(size)}, nil, len(vals))
	for n := range idx {
		coo.Add([]uint64{uint64(idx[n])}, vals[n])
	}
	v, err := sparse.FromCOO[uint64, uint64, float64](coo, []sparse.DimKind{sparse.Compressed}, nil)
	require.NoError(t, err)
	return v
}

func fixtureA(t *testing.T) *sparse.Tensor[uint64, uint64, float64] {
	return buildMatrix(t, 2, 4, nil, []int{0, 0, 1}, []int{1, 2, 3}, []float64{1, 2, 3})
}

func fixtureB(t *testing.T) *sparse.Tensor[uint64, uint64, float64] {
	return buildMatrix(t, 4, 2, []int{1, 0},
		[]int{0, 1, 2, 3, 3}, []int{1, 0, 0, 0, 1}, []float64{7, 4, 5, 6, 8})
}

// requireCSR asserts the exact compressed buffers of a row-major
// matrix result.
func requireCSR(t *testing.T, c *sparse.Tensor[uint64, uint64, float64], ptr, idx []uint64, vals []float64) {
	t.Helper()
	require.True(t, c.IsRowMajor())
	cp, err := c.Pointers(1)
	require.NoError(t, err)
	cj, err := c.Indices(1)
	require.NoError(t, err)
	assert.Equal(t, ptr, cp)
	if len(idx) == 0 {
		assert.Empty(t, cj)
		assert.Empty(t, c.Values())
	} else {
		assert.Equal(t, idx, cj)
		assert.Equal(t, vals, c.Values())
	}
	assert.Empty(t, c.Verify())
}

func requireVec(t *testing.T, c *sparse.Tensor[uint64, uint64, float64], idx []uint64, vals []float64) {
	t.Helper()
	cp, err := c.Pointers(0)
	require.NoError(t, err)
	ci, err := c.Indices(0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, uint64(len(idx))}, cp)
	assert.Equal(t, idx, ci)
	assert.Equal(t, vals, c.Values())
	assert.Empty(t, c.Verify())
}

func seqConfig() parallel.Config {
	return parallel.Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

func parConfig() parallel.Config {
	return parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
}

// Matrix x matrix

func TestMultiplyPlusTimes(t *testing.T) {
	c, err := Multiply(fixtureA(t), fixtureB(t), nil, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireCSR(t, c, []uint64{0, 1, 3}, []uint64{0, 0, 1}, []float64{14, 18, 24})
	assert.Equal(t, 2, c.NumRows())
	assert.Equal(t, 2, c.NumCols())
}

func TestMultiplyMinPlus(t *testing.T) {
	c, err := Multiply(fixtureA(t), fixtureB(t), nil, false, semiring.MinPlus[float64](), seqConfig())
	require.NoError(t, err)
	requireCSR(t, c, []uint64{0, 1, 3}, []uint64{0, 0, 1}, []float64{5, 9, 11})
}

func TestMultiplyMasked(t *testing.T) {
	mask := buildMatrix(t, 2, 2, nil, []int{0, 1}, []int{0, 1}, []float64{1, 1})
	c, err := Multiply(fixtureA(t), fixtureB(t), mask, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireCSR(t, c, []uint64{0, 1, 2}, []uint64{0, 1}, []float64{14, 24})
}

func TestMultiplyComplementMasked(t *testing.T) {
	mask := buildMatrix(t, 2, 2, nil, []int{0, 1}, []int{0, 1}, []float64{1, 1})
	c, err := Multiply(fixtureA(t), fixtureB(t), mask, true, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	// Only (1,0) both survives the complement and overlaps.
	requireCSR(t, c, []uint64{0, 0, 1}, []uint64{0}, []float64{18})
}

func TestMultiplyMaskWithoutOverlap(t *testing.T) {
	// The mask admits only (0,1), where A row 0 and B column 1 are
	// structurally disjoint.
	mask := buildMatrix(t, 2, 2, nil, []int{0}, []int{1}, []float64{1})
	c, err := Multiply(fixtureA(t), fixtureB(t), mask, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireCSR(t, c, []uint64{0, 0, 0}, []uint64{}, []float64{})
}

func TestMultiplyEmptyOperand(t *testing.T) {
	empty := buildMatrix(t, 2, 4, nil, nil, nil, nil)
	c, err := Multiply(empty, fixtureB(t), nil, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireCSR(t, c, []uint64{0, 0, 0}, []uint64{}, []float64{})
}

func TestMultiplyLayoutNormalization(t *testing.T) {
	// A supplied column-major and B row-major: both get converted
	// before the kernel runs, the result is identical.
	aCSC := buildMatrix(t, 2, 4, []int{1, 0}, []int{0, 0, 1}, []int{1, 2, 3}, []float64{1, 2, 3})
	bCSR := buildMatrix(t, 4, 2, nil,
		[]int{0, 1, 2, 3, 3}, []int{1, 0, 0, 0, 1}, []float64{7, 4, 5, 6, 8})
	require.False(t, aCSC.IsRowMajor())
	require.True(t, bCSR.IsRowMajor())

	c, err := Multiply(aCSC, bCSR, nil, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireCSR(t, c, []uint64{0, 1, 3}, []uint64{0, 0, 1}, []float64{14, 18, 24})

	// Normalization converts copies, the operands keep their layout.
	assert.False(t, aCSC.IsRowMajor())
	assert.True(t, bCSR.IsRowMajor())
}

func TestMultiplyShapeMismatch(t *testing.T) {
	bad := buildMatrix(t, 3, 2, nil, []int{0}, []int{0}, []float64{1})
	_, err := Multiply(fixtureA(t), bad, nil, false, semiring.PlusTimes[float64](), seqConfig())
	assert.ErrorIs(t, err, sparse.ErrShapeMismatch)

	shortMask := buildMatrix(t, 2, 3, nil, []int{0}, []int{0}, []float64{1})
	_, err = Multiply(fixtureA(t), fixtureB(t), shortMask, false, semiring.PlusTimes[float64](), seqConfig())
	assert.ErrorIs(t, err, sparse.ErrShapeMismatch)
}

// Matrix x vector and vector x matrix

func TestMatrixVector(t *testing.T) {
	b := buildVector(t, 4, []int{1, 3}, []float64{1, 2})
	c, err := Multiply(fixtureA(t), b, nil, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	require.Equal(t, 1, c.Rank())
	requireVec(t, c, []uint64{0, 1}, []float64{1, 6})
}

func TestMatrixVectorMasked(t *testing.T) {
	b := buildVector(t, 4, []int{1, 3}, []float64{1, 2})
	mask := buildVector(t, 2, []int{1}, []float64{1})

	c, err := Multiply(fixtureA(t), b, mask, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireVec(t, c, []uint64{1}, []float64{6})

	c, err = Multiply(fixtureA(t), b, mask, true, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireVec(t, c, []uint64{0}, []float64{1})
}

func TestMatrixVectorShapeMismatch(t *testing.T) {
	short := buildVector(t, 3, []int{1}, []float64{1})
	_, err := Multiply(fixtureA(t), short, nil, false, semiring.PlusTimes[float64](), seqConfig())
	assert.ErrorIs(t, err, sparse.ErrShapeMismatch)

	badMask := buildVector(t, 5, []int{1}, []float64{1})
	b := buildVector(t, 4, []int{1}, []float64{1})
	_, err = Multiply(fixtureA(t), b, badMask, false, semiring.PlusTimes[float64](), seqConfig())
	assert.ErrorIs(t, err, sparse.ErrShapeMismatch)
}

func TestVectorMatrix(t *testing.T) {
	a := buildVector(t, 4, []int{0, 3}, []float64{1, 2})
	c, err := Multiply(a, fixtureB(t), nil, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	require.Equal(t, 1, c.Rank())
	requireVec(t, c, []uint64{0, 1}, []float64{12, 23})
}

func TestVectorMatrixMasked(t *testing.T) {
	a := buildVector(t, 4, []int{0, 3}, []float64{1, 2})
	mask := buildVector(t, 2, []int{0}, []float64{1})

	c, err := Multiply(a, fixtureB(t), mask, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireVec(t, c, []uint64{0}, []float64{12})

	c, err = Multiply(a, fixtureB(t), mask, true, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	requireVec(t, c, []uint64{1}, []float64{23})
}

// Vector x vector

func TestVectorVector(t *testing.T) {
	a := buildVector(t, 4, []int{1, 3}, []float64{2, 5})
	b := buildVector(t, 4, []int{0, 3}, []float64{1, 4})

	c, err := Multiply(a, b, nil, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	require.Equal(t, 1, c.Rank())
	assert.Equal(t, 1, c.Size())
	requireVec(t, c, []uint64{0}, []float64{20})
}

func TestVectorVectorDisjoint(t *testing.T) {
	a := buildVector(t, 4, []int{0, 2}, []float64{2, 5})
	b := buildVector(t, 4, []int{1, 3}, []float64{1, 4})

	c, err := Multiply(a, b, nil, false, semiring.PlusTimes[float64](), seqConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, c.NumVals())
	assert.Empty(t, c.Verify())
}

// Fused reduction

func TestMultiplyReduce(t *testing.T) {
	v, err := MultiplyReduce(fixtureA(t), fixtureB(t), nil, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, 56.0, v)

	mask := buildMatrix(t, 2, 2, nil, []int{0, 1}, []int{0, 1}, []float64{1, 1})
	v, err = MultiplyReduce(fixtureA(t), fixtureB(t), mask, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, 38.0, v)

	v, err = MultiplyReduce(fixtureA(t), fixtureB(t), mask, true, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, 18.0, v)

	v, err = MultiplyReduce(fixtureA(t), fixtureB(t), nil, false, semiring.MinPlus[float64]())
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
}

func TestMultiplyReduceVector(t *testing.T) {
	b := buildVector(t, 4, []int{1, 3}, []float64{1, 2})
	v, err := MultiplyReduce(fixtureA(t), b, nil, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	a := buildVector(t, 4, []int{1, 3}, []float64{2, 5})
	bb := buildVector(t, 4, []int{0, 3}, []float64{1, 4})
	v, err = MultiplyReduce(a, bb, nil, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
}

func TestMultiplyReduceEmpty(t *testing.T) {
	a := buildVector(t, 4, []int{0}, []float64{2})
	b := buildVector(t, 4, []int{3}, []float64{4})

	v, err := MultiplyReduce(a, b, nil, false, semiring.PlusTimes[float64]())
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = MultiplyReduce(a, b, nil, false, semiring.MinPlus[float64]())
	require.NoError(t, err)
	assert.Equal(t, semiring.MinPlus[float64]().AddIdentity, v)
}

// Width handling

func TestMultiplyNarrowWidths(t *testing.T) {
	acoo := sparse.NewCOO[uint8, int32]([]uint64{2, 4}, nil, 3)
	acoo.Add([]uint8{0, 1}, 1)
	acoo.Add([]uint8{0, 2}, 2)
	acoo.Add([]uint8{1, 3}, 3)
	a, err := sparse.FromCOO[uint8, uint8, int32](acoo, []sparse.DimKind{sparse.Dense, sparse.Compressed}, nil)
	require.NoError(t, err)

	bcoo := sparse.NewCOO[uint8, int32]([]uint64{4, 2}, []int{1, 0}, 5)
	bcoo.Add([]uint8{0, 1}, 7)
	bcoo.Add([]uint8{1, 0}, 4)
	bcoo.Add([]uint8{2, 0}, 5)
	bcoo.Add([]uint8{3, 0}, 6)
	bcoo.Add([]uint8{3, 1}, 8)
	b, err := sparse.FromCOO[uint8, uint8, int32](bcoo, []sparse.DimKind{sparse.Dense, sparse.Compressed}, nil)
	require.NoError(t, err)

	c, err := Multiply(a, b, nil, false, semiring.PlusTimes[int32](), seqConfig())
	require.NoError(t, err)
	cp, err := c.Pointers(1)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 1, 3}, cp)
	assert.Equal(t, []int32{14, 18, 24}, c.Values())
	assert.Empty(t, c.Verify())
}

func TestMultiplyPointerWidthExhausted(t *testing.T) {
	// 16 full rows times 16 full columns yields 256 result entries,
	// one more than uint8 pointers can address.
	acoo := sparse.NewCOO[uint8, int32]([]uint64{16, 16}, nil, 16)
	bcoo := sparse.NewCOO[uint8, int32]([]uint64{16, 16}, []int{1, 0}, 16)
	for i := 0; i < 16; i++ {
		acoo.Add([]uint8{uint8(i), 0}, 1)
		bcoo.Add([]uint8{0, uint8(i)}, 1)
	}
	a, err := sparse.FromCOO[uint8, uint8, int32](acoo, []sparse.DimKind{sparse.Dense, sparse.Compressed}, nil)
	require.NoError(t, err)
	b, err := sparse.FromCOO[uint8, uint8, int32](bcoo, []sparse.DimKind{sparse.Dense, sparse.Compressed}, nil)
	require.NoError(t, err)

	_, err = Multiply(a, b, nil, false, semiring.PlusTimes[int32](), seqConfig())
	assert.ErrorIs(t, err, sparse.ErrExhausted)
}

// Parallel execution

func TestMultiplyParallelMatchesSequential(t *testing.T) {
	const n = 40
	acoo := sparse.NewCOO[uint64, float64]([]uint64{n, n}, nil, 3*n)
	bcoo := sparse.NewCOO[uint64, float64]([]uint64{n, n}, []int{1, 0}, 3*n)
	for i := 0; i < n; i++ {
		for _, j := range []int{i, (i*7 + 3) % n, (i*13 + 5) % n} {
			acoo.Add([]uint64{uint64(i), uint64(j)}, float64(i+j+1))
			bcoo.Add([]uint64{uint64(j), uint64(i)}, float64(2*i-j))
		}
	}
	sum := func(x, y float64) float64 { return x + y }
	a, err := sparse.FromCOO[uint64, uint64, float64](acoo, []sparse.DimKind{sparse.Dense, sparse.Compressed}, sum)
	require.NoError(t, err)
	b, err := sparse.FromCOO[uint64, uint64, float64](bcoo, []sparse.DimKind{sparse.Dense, sparse.Compressed}, sum)
	require.NoError(t, err)

	ring := semiring.PlusTimes[float64]()
	seq, err := Multiply(a, b, nil, false, ring, seqConfig())
	require.NoError(t, err)
	par, err := Multiply(a, b, nil, false, ring, parConfig())
	require.NoError(t, err)

	sp, _ := seq.Pointers(1)
	pp, _ := par.Pointers(1)
	assert.Equal(t, sp, pp)
	si, _ := seq.Indices(1)
	pi, _ := par.Indices(1)
	assert.Equal(t, si, pi)
	assert.Equal(t, seq.Values(), par.Values())
	assert.Empty(t, par.Verify())

	// The fused reduction agrees with folding the materialized product.
	want := ring.AddIdentity
	for _, v := range seq.Values() {
		want = ring.Add(want, v)
	}
	got, err := MultiplyReduce(a, b, nil, false, ring)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

// Ring variety on real operands

func TestMultiplyStructuralRings(t *testing.T) {
	a := fixtureA(t)
	b := fixtureB(t)

	// PlusPair counts overlapping pairs per output entry.
	c, err := Multiply(a, b, nil, false, semiring.PlusPair[float64](), seqConfig())
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1, 1}, c.Values())

	// AnyOverlap records a contraction index per output entry.
	c, err = Multiply(a, b, nil, false, semiring.AnyOverlap[float64](), seqConfig())
	require.NoError(t, err)
	require.Equal(t, 3, c.NumVals())
	// Row 0 overlaps B column 0 last at k = 2, row 1 only at k = 3.
	assert.Equal(t, []float64{2, 3, 3}, c.Values())
}
