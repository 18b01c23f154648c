package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"

	lsherrors "github.com/tamirms/lshsig/errors"
	"github.com/tamirms/lshsig/internal/family"
	"github.com/tamirms/lshsig/internal/width"
)

// Euclidean returns the banded p-stable signature of vec.
//
// For function i the bucket is floor(dot(vec, dir_i)/bucketWidth + offset_i),
// saturated to the int64 range and encoded with p.Bucket. vec must have the
// family's dimensionality and finite components.
func Euclidean[T width.Word, P width.Policy[T]](p P, vec []float64, bucketWidth float64, fam *family.Euclidean, bandCount, bandSize int) ([]T, error) {
	if len(vec) != fam.Dims {
		return nil, fmt.Errorf("%w: expected %d components, got %d", lsherrors.ErrDimensionMismatch, fam.Dims, len(vec))
	}
	if err := CheckFinite(vec); err != nil {
		return nil, err
	}

	k := bandCount * bandSize
	x := blas64.Vector{N: len(vec), Inc: 1, Data: vec}
	var scaled *scaledVector
	codes := make([]T, k)
	for i := 0; i < k; i++ {
		var proj float64
		if fam.Dims > 0 {
			proj = blas64.Dot(x, blas64.Vector{N: fam.Dims, Inc: 1, Data: fam.Direction(i)})
		}
		q := proj/bucketWidth + fam.Offsets[i]
		if math.IsNaN(q) {
			// Partial sums overflowed to both infinities.
			if scaled == nil {
				scaled = newScaledVector(x)
			}
			q = scaled.project(fam.Direction(i), bucketWidth) + fam.Offsets[i]
		}
		codes[i] = p.Bucket(Quantize(q))
	}
	return Band(p, codes, bandCount, bandSize), nil
}

// scaledVector is a copy of a vector divided by a power of two so that its
// largest component has magnitude below 1. Dot products against it cannot
// overflow for directions of any realistic norm.
type scaledVector struct {
	x   blas64.Vector
	exp int
}

func newScaledVector(x blas64.Vector) *scaledVector {
	_, exp := math.Frexp(math.Abs(x.Data[blas64.Iamax(x)]))
	data := make([]float64, x.N)
	for i, v := range x.Data[:x.N] {
		data[i] = math.Ldexp(v, -exp)
	}
	return &scaledVector{x: blas64.Vector{N: x.N, Inc: 1, Data: data}, exp: exp}
}

// project returns dot(x, dir)/bucketWidth. The result saturates to ±Inf
// rather than becoming NaN.
func (s *scaledVector) project(dir []float64, bucketWidth float64) float64 {
	dot := blas64.Dot(s.x, blas64.Vector{N: s.x.N, Inc: 1, Data: dir})
	return math.Ldexp(dot/bucketWidth, s.exp)
}

// CheckFinite reports ErrNonFiniteValue when vec has a NaN or Inf component.
func CheckFinite(vec []float64) error {
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: component %d is %v", lsherrors.ErrNonFiniteValue, i, v)
		}
	}
	return nil
}

// Quantize returns floor(q) as int64, saturating at the int64 bounds.
// q must not be NaN.
func Quantize(q float64) int64 {
	f := math.Floor(q)
	switch {
	case f >= math.MaxInt64: // float64(MaxInt64) rounds up to 2^63
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}
