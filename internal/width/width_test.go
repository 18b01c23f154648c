package width

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func combine64(band int, values ...uint64) uint64 {
	var p W64
	return p.Combine(band, values, make([]byte, p.ScratchSize(len(values))))
}

func combine32(band int, values ...uint32) uint32 {
	var p W32
	return p.Combine(band, values, make([]byte, p.ScratchSize(len(values))))
}

func TestEmptySentinel(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), W64{}.Empty())
	assert.Equal(t, uint32(math.MaxUint32), W32{}.Empty())
	assert.Equal(t, 64, W64{}.Bits())
	assert.Equal(t, 32, W32{}.Bits())
}

func TestCombine_Deterministic(t *testing.T) {
	assert.Equal(t, combine64(0, 1, 2, 3), combine64(0, 1, 2, 3))
	assert.Equal(t, combine32(0, 1, 2, 3), combine32(0, 1, 2, 3))
}

func TestCombine_OrderSensitive(t *testing.T) {
	assert.NotEqual(t, combine64(0, 1, 2), combine64(0, 2, 1))
	assert.NotEqual(t, combine32(0, 1, 2), combine32(0, 2, 1))
}

func TestCombine_BandSeparated(t *testing.T) {
	assert.NotEqual(t, combine64(0, 7, 7), combine64(1, 7, 7))
	assert.NotEqual(t, combine32(0, 7, 7), combine32(1, 7, 7))
}

func TestCombine_ScratchLargerThanNeeded(t *testing.T) {
	var p W64
	scratch := make([]byte, p.ScratchSize(8))
	for i := range scratch {
		scratch[i] = 0xAA
	}
	assert.Equal(t, combine64(3, 4, 5), p.Combine(3, []uint64{4, 5}, scratch))

	var q W32
	scratch = make([]byte, q.ScratchSize(8))
	for i := range scratch {
		scratch[i] = 0xAA
	}
	assert.Equal(t, combine32(3, 4, 5), q.Combine(3, []uint32{4, 5}, scratch))
}

func TestHash_FunctionsDiffer(t *testing.T) {
	const shingle = 0xDEADBEEFCAFEBABE
	assert.NotEqual(t, W64{}.Hash(shingle, 1), W64{}.Hash(shingle, 2))
	assert.NotEqual(t, W32{}.Hash(shingle, 1<<32), W32{}.Hash(shingle, 2<<32))
	// Seeds that share their upper half still give different functions.
	assert.NotEqual(t, W32{}.Hash(shingle, 1), W32{}.Hash(shingle, 2))
}

func TestMurmur32KnownVectors(t *testing.T) {
	tests := []struct {
		data string
		seed uint32
		want uint32
	}{
		{"", 0, 0},
		{"", 1, 0x514E28B7},
		{"hello", 0, 0x248BFA47},
		{"aaaa", 0x9747B28C, 0x5A97808A},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, murmur32([]byte(tt.data), tt.seed), "data=%q seed=%#x", tt.data, tt.seed)
	}
}

func TestHash_WidthsNotTruncation(t *testing.T) {
	var p64 W64
	var p32 W32
	matches := 0
	for s := uint64(0); s < 1000; s++ {
		fn := uint64(0x9E3779B97F4A7C15) * (s + 1)
		if uint32(p64.Hash(s, fn)) == p32.Hash(s, fn) {
			matches++
		}
	}
	assert.Less(t, matches, 3)
}

func TestBucket_AdjacentDistinct(t *testing.T) {
	for b := int64(-1000); b < 1000; b++ {
		assert.NotEqual(t, W64{}.Bucket(b), W64{}.Bucket(b+1))
		assert.NotEqual(t, W32{}.Bucket(b), W32{}.Bucket(b+1))
	}
	// Across the int32 boundary the 32-bit encoding switches to folding.
	assert.NotEqual(t, W32{}.Bucket(math.MaxInt32), W32{}.Bucket(math.MaxInt32+1))
	assert.NotEqual(t, W32{}.Bucket(math.MinInt32), W32{}.Bucket(math.MinInt32-1))
}

func TestBucket_SignsDistinct(t *testing.T) {
	for b := int64(1); b < 1000; b++ {
		assert.NotEqual(t, W64{}.Bucket(b), W64{}.Bucket(-b))
		assert.NotEqual(t, W32{}.Bucket(b), W32{}.Bucket(-b))
	}
}
