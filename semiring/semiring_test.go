package semiring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlusTimes(t *testing.T) {
	ring := PlusTimes[float64]()

	assert.Equal(t, 0.0, ring.AddIdentity)
	assert.Equal(t, 7.0, ring.Add(3, 4))
	assert.Equal(t, 12.0, ring.Mult(3, 4, 0))

	// Contraction index is ignored.
	assert.Equal(t, ring.Mult(3, 4, 0), ring.Mult(3, 4, 99))
}

func TestMinPlus(t *testing.T) {
	ring := MinPlus[float64]()

	assert.True(t, math.IsInf(ring.AddIdentity, 1))
	assert.Equal(t, 3.0, ring.Add(3, 4))
	assert.Equal(t, 3.0, ring.Add(4, 3))
	assert.Equal(t, 7.0, ring.Mult(3, 4, 0))

	// Folding anything into the identity keeps it.
	assert.Equal(t, 5.0, ring.Add(ring.AddIdentity, 5))
}

func TestMinPlusIntegerIdentity(t *testing.T) {
	assert.Equal(t, int32(math.MaxInt32), MinPlus[int32]().AddIdentity)
	assert.Equal(t, int8(math.MaxInt8), MinPlus[int8]().AddIdentity)
	assert.Equal(t, uint16(math.MaxUint16), MinPlus[uint16]().AddIdentity)
	assert.Equal(t, uint64(math.MaxUint64), MinPlus[uint64]().AddIdentity)
}

func TestPlusPlus(t *testing.T) {
	ring := PlusPlus[int32]()

	assert.Equal(t, int32(0), ring.AddIdentity)
	assert.Equal(t, int32(7), ring.Add(3, 4))
	assert.Equal(t, int32(7), ring.Mult(3, 4, 0))
}

func TestPlusPair(t *testing.T) {
	ring := PlusPair[int64]()

	assert.Equal(t, int64(1), ring.Mult(123, -456, 0))
	assert.Equal(t, int64(3), ring.Add(ring.Add(1, 1), 1))
}

func TestAnyPair(t *testing.T) {
	ring := AnyPair[float32]()

	assert.Equal(t, float32(1), ring.Mult(9, 9, 0))
	assert.Equal(t, float32(1), ring.Add(ring.AddIdentity, ring.Mult(2, 3, 5)))
}

func TestAnyOverlap(t *testing.T) {
	ring := AnyOverlap[int64]()

	assert.Equal(t, int64(5), ring.Mult(100, 200, 5))
	assert.Equal(t, int64(5), ring.Add(ring.AddIdentity, ring.Mult(0, 0, 5)))
}

func TestCustomRing(t *testing.T) {
	// Max-times over positive values.
	ring := Semiring[float64]{
		AddIdentity: 0,
		Add: func(x, y float64) float64 {
			if y > x {
				return y
			}
			return x
		},
		Mult: func(a, b float64, _ int) float64 { return a * b },
	}

	acc := ring.AddIdentity
	acc = ring.Add(acc, ring.Mult(2, 3, 0))
	acc = ring.Add(acc, ring.Mult(1, 4, 1))
	assert.Equal(t, 6.0, acc)
}
