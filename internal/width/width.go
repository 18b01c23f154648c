// Package width defines the numeric-width policies shared by the MinHash and
// Euclidean engines.
//
// The engines are written once, generic over a Policy; W64 and W32 are the
// two instantiations. A policy decides how a hash function is applied to a
// shingle, how a quantised bucket is encoded, how a band is folded into one
// value and which sentinel stands for an empty shingle set. The banding
// structure itself (band count, band size, order) is identical for both.
package width

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"

	"github.com/tamirms/lshsig/internal/bits"
)

// Word is an output element type.
type Word interface {
	~uint32 | ~uint64
}

// Policy describes one output width.
type Policy[T Word] interface {
	// Bits returns the output width in bits.
	Bits() int

	// Empty returns the per-function value used when the shingle set is
	// empty: the maximum representable value, i.e. "no minimum seen".
	Empty() T

	// Hash applies the hash function identified by fn to a shingle hash.
	Hash(shingle, fn uint64) T

	// Bucket encodes a signed bucket index.
	Bucket(b int64) T

	// ScratchSize returns the scratch length Combine needs for bandSize values.
	ScratchSize(bandSize int) int

	// Combine folds the values of band index band into one output value.
	// The fold is order-sensitive. scratch must hold ScratchSize(len(values)) bytes.
	Combine(band int, values []T, scratch []byte) T
}

// W64 is the 64-bit policy.
//
//   - Hash: splitmix64 finalizer of shingle ^ fn.
//   - Bucket: zigzag encoding, a bijection from int64.
//   - Combine: xxHash64 over [band][v0][v1]... as little-endian uint64 words.
type W64 struct{}

func (W64) Bits() int { return 64 }

func (W64) Empty() uint64 { return math.MaxUint64 }

func (W64) Hash(shingle, fn uint64) uint64 {
	return bits.Mix64(shingle ^ fn)
}

func (W64) Bucket(b int64) uint64 {
	return bits.ZigZag64(b)
}

func (W64) ScratchSize(bandSize int) int {
	return 8 * (bandSize + 1)
}

func (W64) Combine(band int, values []uint64, scratch []byte) uint64 {
	binary.LittleEndian.PutUint64(scratch, uint64(band))
	for i, v := range values {
		binary.LittleEndian.PutUint64(scratch[8*(i+1):], v)
	}
	return xxhash.Sum64(scratch[:8*(len(values)+1)])
}

// W32 is the 32-bit policy.
//
//   - Hash: murmur3 x86_32 of shingle ^ fn as 8 little-endian bytes, seeded
//     with the upper half of fn.
//   - Bucket: zigzag32 for buckets inside the int32 range, which keeps every
//     pair of adjacent buckets distinct; buckets outside it are folded to the
//     upper half of the mixed zigzag64 code.
//   - Combine: murmur3 x86_32 over [v0][v1]... as little-endian uint32 words,
//     seeded with the band index.
type W32 struct{}

func (W32) Bits() int { return 32 }

func (W32) Empty() uint32 { return math.MaxUint32 }

func (W32) Hash(shingle, fn uint64) uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], shingle^fn)
	return murmur32(buf[:], uint32(fn>>32))
}

func (W32) Bucket(b int64) uint32 {
	if b >= math.MinInt32 && b <= math.MaxInt32 {
		return bits.ZigZag32(int32(b))
	}
	return uint32(bits.Mix64(bits.ZigZag64(b)) >> 32)
}

func (W32) ScratchSize(bandSize int) int {
	return 4 * bandSize
}

func (W32) Combine(band int, values []uint32, scratch []byte) uint32 {
	for i, v := range values {
		binary.LittleEndian.PutUint32(scratch[4*i:], v)
	}
	return murmur32(scratch[:4*len(values)], uint32(band))
}

// murmur32 is murmur3 x86_32 through the streaming digest. Sum32WithSeed
// walks the input with uintptr arithmetic that checkptr (-race) rejects.
func murmur32(data []byte, seed uint32) uint32 {
	h := murmur3.New32WithSeed(seed)
	_, _ = h.Write(data)
	return h.Sum32()
}
