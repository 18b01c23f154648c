package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/blas/blas64"

	lsherrors "github.com/tamirms/lshsig/errors"
	"github.com/tamirms/lshsig/internal/family"
	"github.com/tamirms/lshsig/internal/shingle"
	"github.com/tamirms/lshsig/internal/width"
)

func minFamily(t *testing.T, seed uint64, bands, rows, bits int) *family.MinHash {
	t.Helper()
	fam, err := family.NewMinHash(family.Key{Kind: family.KindMinHash, Seed: seed, BandCount: bands, BandSize: rows, Bits: bits})
	require.NoError(t, err)
	return fam
}

func eucFamily(t *testing.T, seed uint64, bands, rows, dims int) *family.Euclidean {
	t.Helper()
	fam, err := family.NewEuclidean(family.Key{Kind: family.KindEuclidean, Seed: seed, BandCount: bands, BandSize: rows, Dims: dims, Bits: 64})
	require.NoError(t, err)
	return fam
}

// tokenSet returns tokens [from, to) as a hashed set.
func tokenSet(from, to int) shingle.Set {
	toks := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		toks = append(toks, fmt.Sprintf("tok-%d", i))
	}
	return shingle.HashTokens(toks)
}

func matchingBands[T comparable](a, b []T) int {
	n := 0
	for i := range a {
		if a[i] == b[i] {
			n++
		}
	}
	return n
}

func TestMinHash_Shape(t *testing.T) {
	set := tokenSet(0, 10)
	for _, bands := range []int{1, 2, 7} {
		for _, rows := range []int{1, 3} {
			fam := minFamily(t, 1, bands, rows, 64)
			assert.Len(t, MinHash[uint64](width.W64{}, set, fam, bands, rows), bands)

			fam32 := minFamily(t, 1, bands, rows, 32)
			assert.Len(t, MinHash[uint32](width.W32{}, set, fam32, bands, rows), bands)
		}
	}
}

func TestMinHash_Deterministic(t *testing.T) {
	fam := minFamily(t, 123, 4, 3, 64)
	a := MinHash[uint64](width.W64{}, tokenSet(0, 50), fam, 4, 3)
	b := MinHash[uint64](width.W64{}, tokenSet(0, 50), fam, 4, 3)
	assert.Equal(t, a, b)
}

func TestMinHash_EmptySetSentinel(t *testing.T) {
	fam := minFamily(t, 123, 3, 2, 64)
	got := MinHash[uint64](width.W64{}, shingle.Set{}, fam, 3, 2)

	var p width.W64
	want := Band(p, []uint64{math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64}, 3, 2)
	assert.Equal(t, want, got)
	assert.Equal(t, got, MinHash[uint64](width.W64{}, nil, fam, 3, 2))
}

func TestMinHash_SimilarSetsCollideMore(t *testing.T) {
	const bands = 256
	fam := minFamily(t, 42, bands, 1, 64)
	base := MinHash[uint64](width.W64{}, tokenSet(0, 100), fam, bands, 1)
	near := MinHash[uint64](width.W64{}, tokenSet(5, 105), fam, bands, 1) // Jaccard ~0.90
	far := MinHash[uint64](width.W64{}, tokenSet(80, 180), fam, bands, 1) // Jaccard ~0.11

	nearMatches := matchingBands(base, near)
	farMatches := matchingBands(base, far)
	assert.Greater(t, nearMatches, 180)
	assert.Less(t, farMatches, 80)
}

func TestMinHash32_SimilarSetsCollideMore(t *testing.T) {
	const bands = 256
	fam := minFamily(t, 42, bands, 1, 32)
	base := MinHash[uint32](width.W32{}, tokenSet(0, 100), fam, bands, 1)
	near := MinHash[uint32](width.W32{}, tokenSet(5, 105), fam, bands, 1)
	far := MinHash[uint32](width.W32{}, tokenSet(80, 180), fam, bands, 1)

	assert.Greater(t, matchingBands(base, near), 180)
	assert.Less(t, matchingBands(base, far), 80)
}

func TestMinHash_BandsUseFamilyPrefix(t *testing.T) {
	set := tokenSet(0, 20)
	small := MinHash[uint64](width.W64{}, set, minFamily(t, 9, 2, 3, 64), 2, 3)
	large := MinHash[uint64](width.W64{}, set, minFamily(t, 9, 5, 3, 64), 5, 3)
	assert.Equal(t, small, large[:2])
}

func TestEuclidean_Deterministic(t *testing.T) {
	fam := eucFamily(t, 123, 2, 3, 4)
	vec := []float64{0.1, -2.5, 3.0, 7.25}

	a, err := Euclidean[uint64](width.W64{}, vec, 0.5, fam, 2, 3)
	require.NoError(t, err)
	b, err := Euclidean[uint64](width.W64{}, vec, 0.5, fam, 2, 3)
	require.NoError(t, err)
	assert.Len(t, a, 2)
	assert.Equal(t, a, b)
}

func TestEuclidean_NearVectorsCollideMore(t *testing.T) {
	const bands, dims = 256, 8
	fam := eucFamily(t, 7, bands, 1, dims)
	rng := rand.New(rand.NewPCG(1, 2))

	base := make([]float64, dims)
	near := make([]float64, dims)
	far := make([]float64, dims)
	for d := range base {
		base[d] = rng.NormFloat64()
		near[d] = base[d] + 0.01
		far[d] = base[d] + 5
	}

	sigBase, err := Euclidean[uint64](width.W64{}, base, 1.0, fam, bands, 1)
	require.NoError(t, err)
	sigNear, err := Euclidean[uint64](width.W64{}, near, 1.0, fam, bands, 1)
	require.NoError(t, err)
	sigFar, err := Euclidean[uint64](width.W64{}, far, 1.0, fam, bands, 1)
	require.NoError(t, err)

	assert.Greater(t, matchingBands(sigBase, sigNear), 200)
	assert.Less(t, matchingBands(sigBase, sigFar), 50)
}

func TestEuclidean_DimensionMismatch(t *testing.T) {
	fam := eucFamily(t, 1, 2, 2, 3)
	_, err := Euclidean[uint64](width.W64{}, []float64{1, 2}, 1, fam, 2, 2)
	require.ErrorIs(t, err, lsherrors.ErrDimensionMismatch)
}

func TestEuclidean_NonFinite(t *testing.T) {
	fam := eucFamily(t, 1, 2, 2, 2)
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Euclidean[uint32](width.W32{}, []float64{1, v}, 1, fam, 2, 2)
		require.ErrorIs(t, err, lsherrors.ErrNonFiniteValue)
	}
}

func TestEuclidean_ProjectionOverflow(t *testing.T) {
	const dims = 16
	fam := eucFamily(t, 9, 4, 4, dims)
	vec := make([]float64, dims)
	for d := range vec {
		vec[d] = 1.7e308
		if d%2 == 1 {
			vec[d] = -1.7e308
		}
	}

	a, err := Euclidean[uint64](width.W64{}, vec, 1, fam, 4, 4)
	require.NoError(t, err)
	b, err := Euclidean[uint64](width.W64{}, vec, 1, fam, 4, 4)
	require.NoError(t, err)
	assert.Len(t, a, 4)
	assert.Equal(t, a, b)

	narrow, err := Euclidean[uint32](width.W32{}, vec, 1, fam, 4, 4)
	require.NoError(t, err)
	assert.Len(t, narrow, 4)
}

func TestScaledVectorProject(t *testing.T) {
	dir := []float64{2, 2}

	cancel := newScaledVector(blas64.Vector{N: 2, Inc: 1, Data: []float64{1.7e308, -1.7e308}})
	assert.Zero(t, cancel.project(dir, 1))

	mixed := newScaledVector(blas64.Vector{N: 2, Inc: 1, Data: []float64{1.7e308, -1.0e308}})
	assert.InEpsilon(t, 1.4e308, mixed.project(dir, 1), 1e-12)
	assert.InEpsilon(t, 0.7e308, mixed.project(dir, 2), 1e-12)
	assert.True(t, math.IsInf(mixed.project(dir, 0.5), 1), "saturates instead of NaN")

	small := newScaledVector(blas64.Vector{N: 3, Inc: 1, Data: []float64{0.5, -3, 4}})
	assert.InEpsilon(t, 2.0, small.project([]float64{2, 1, 1}, 1), 1e-12)
}

func TestEuclidean_ZeroDims(t *testing.T) {
	fam := eucFamily(t, 1, 3, 2, 0)
	a, err := Euclidean[uint64](width.W64{}, []float64{}, 1, fam, 3, 2)
	require.NoError(t, err)
	b, err := Euclidean[uint64](width.W64{}, nil, 1, fam, 3, 2)
	require.NoError(t, err)
	assert.Len(t, a, 3)
	assert.Equal(t, a, b)
}

func TestQuantize(t *testing.T) {
	assert.Equal(t, int64(0), Quantize(0.4))
	assert.Equal(t, int64(-1), Quantize(-0.4))
	assert.Equal(t, int64(3), Quantize(3))
	assert.Equal(t, int64(-3), Quantize(-3))
	assert.Equal(t, int64(math.MaxInt64), Quantize(1e300))
	assert.Equal(t, int64(math.MinInt64), Quantize(-1e300))
	assert.Equal(t, int64(math.MaxInt64), Quantize(math.Inf(1)))
	assert.Equal(t, int64(math.MinInt64), Quantize(math.Inf(-1)))
}
