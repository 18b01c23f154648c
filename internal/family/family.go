// Package family derives hash-function families from a seed.
//
// A family is a pure function of its Key: the same key always yields the same
// descriptors, regardless of call order, goroutine or process. Randomness
// comes from generators constructed fresh for every derivation; nothing is
// drawn from a shared or wall-clock seeded source.
package family

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	lsherrors "github.com/tamirms/lshsig/errors"
	"github.com/tamirms/lshsig/internal/bits"
)

// MaxFunctions caps band_count * band_size. A family of this size already
// needs 8 MiB of seeds; larger requests are treated as misconfiguration.
const MaxFunctions = 1 << 20

// Kind identifies the hash scheme a family is derived for.
type Kind uint8

const (
	KindMinHash   Kind = 1
	KindEuclidean Kind = 2
)

// String returns the scheme name.
func (k Kind) String() string {
	switch k {
	case KindMinHash:
		return "minhash"
	case KindEuclidean:
		return "euclidean"
	default:
		return "unknown"
	}
}

// Stream salts. The 32- and 64-bit MinHash families start their splitmix64
// streams at different states so neither is a truncation of the other.
// The PCG stream selector separates Euclidean draws from any other use of the
// same seed.
const (
	minHash64Salt  = 0x6a09e667f3bcc908
	minHash32Salt  = 0xbb67ae8584caa73b
	euclideanSeq   = 0x3c6ef372fe94f82b
	euclideanSaltB = 0xa54ff53a5f1d36f1
)

// Key identifies a family. It is comparable and used as the cache key.
// Dims is zero for MinHash families. Bits is 32 or 64.
type Key struct {
	Kind      Kind
	Seed      uint64
	BandCount int
	BandSize  int
	Dims      int
	Bits      int
}

// Functions returns the number of hash functions in the family.
func (k Key) Functions() int {
	return k.BandCount * k.BandSize
}

// String renders the key for logging and singleflight deduplication.
func (k Key) String() string {
	return fmt.Sprintf("%s/seed=%d/bands=%dx%d/dims=%d/bits=%d",
		k.Kind, k.Seed, k.BandCount, k.BandSize, k.Dims, k.Bits)
}

// Validate checks the banding parameters and the function count limit.
func (k Key) Validate() error {
	if k.BandCount <= 0 {
		return fmt.Errorf("%w: band_count must be positive, got %d", lsherrors.ErrInvalidParameter, k.BandCount)
	}
	if k.BandSize <= 0 {
		return fmt.Errorf("%w: band_size must be positive, got %d", lsherrors.ErrInvalidParameter, k.BandSize)
	}
	if k.BandCount > MaxFunctions/k.BandSize {
		return fmt.Errorf("%w: band_count * band_size must not exceed %d, got %d * %d",
			lsherrors.ErrInvalidParameter, MaxFunctions, k.BandCount, k.BandSize)
	}
	if k.Bits != 32 && k.Bits != 64 {
		return fmt.Errorf("%w: bit width must be 32 or 64, got %d", lsherrors.ErrInvalidParameter, k.Bits)
	}
	if k.Dims < 0 {
		return fmt.Errorf("%w: dimensionality must not be negative, got %d", lsherrors.ErrInvalidParameter, k.Dims)
	}
	return nil
}

// MinHash holds one 64-bit seed per hash function. Width policies turn a
// seed into a concrete function over shingle hashes.
type MinHash struct {
	Seeds []uint64
}

// Euclidean holds K projection directions of length Dims, stored row-major,
// and K offsets in [0, 1). Offsets are multiplied by the bucket width at
// hash time.
type Euclidean struct {
	Dims       int
	Directions []float64
	Offsets    []float64
}

// Direction returns the i-th projection direction.
func (e *Euclidean) Direction(i int) []float64 {
	return e.Directions[i*e.Dims : (i+1)*e.Dims]
}

// NewMinHash derives a MinHash family. Function i's seed is the i-th output
// of a counter-based splitmix64 stream, so function seeds are independent of
// each other and of the total count.
func NewMinHash(key Key) (*MinHash, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	salt := uint64(minHash64Salt)
	if key.Bits == 32 {
		salt = minHash32Salt
	}
	state := bits.Mix64(key.Seed ^ salt)
	seeds := make([]uint64, key.Functions())
	for i := range seeds {
		seeds[i] = bits.SplitMix64At(state, uint64(i))
	}
	return &MinHash{Seeds: seeds}, nil
}

// NewEuclidean derives a p-stable (Gaussian) projection family. Direction
// components are standard normal; offsets are uniform in [0, 1).
// The family does not depend on the output bit width.
func NewEuclidean(key Key) (*Euclidean, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	k := key.Functions()
	src := rand.NewPCG(key.Seed, euclideanSeq^bits.Mix64(key.Seed^euclideanSaltB))
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}

	fam := &Euclidean{
		Dims:       key.Dims,
		Directions: make([]float64, k*key.Dims),
		Offsets:    make([]float64, k),
	}
	for i := 0; i < k; i++ {
		dir := fam.Direction(i)
		for d := range dir {
			dir[d] = normal.Rand()
		}
		fam.Offsets[i] = uniform.Rand()
	}
	return fam, nil
}
