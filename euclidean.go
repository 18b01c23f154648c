package lshsig

import (
	"fmt"

	lsherrors "github.com/tamirms/lshsig/errors"
	"github.com/tamirms/lshsig/internal/engine"
	"github.com/tamirms/lshsig/internal/family"
	"github.com/tamirms/lshsig/internal/width"
)

// Euclidean returns a 64-bit banded p-stable LSH signature of each vector.
// Vectors within a small L2 distance of each other are likely to agree on
// at least one band.
//
// A nil vector is NULL. All non-NULL vectors in the batch must have the same
// length, which selects the projection dimensionality, and must have finite
// components; violations fail the whole call.
func (h *Hasher) Euclidean(vectors [][]float64, p EuclideanParams) ([][]uint64, error) {
	return euclideanRows[uint64](h, opEuclidean, width.W64{}, vectors, p)
}

// Euclidean32 is Euclidean with 32-bit band values.
func (h *Hasher) Euclidean32(vectors [][]float64, p EuclideanParams) ([][]uint32, error) {
	return euclideanRows[uint32](h, opEuclidean32, width.W32{}, vectors, p)
}

func euclideanRows[T width.Word, P width.Policy[T]](h *Hasher, op operation, pol P, vectors [][]float64, p EuclideanParams) ([][]T, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	dims, err := batchDims(vectors)
	if err != nil {
		return nil, err
	}
	out := make([][]T, len(vectors))
	if dims < 0 {
		// Every row is NULL; no family is needed.
		countRows(h, op, out)
		return out, nil
	}

	fam, err := h.families.Euclidean(p.key(family.KindEuclidean, pol.Bits(), dims))
	if err != nil {
		return nil, err
	}
	err = h.forEachRow(op, len(vectors), func(i int) error {
		if vectors[i] == nil {
			return nil
		}
		sig, err := engine.Euclidean[T](pol, vectors[i], p.BucketWidth, fam, p.BandCount, p.BandSize)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = sig
		return nil
	})
	if err != nil {
		return nil, err
	}
	countRows(h, op, out)
	return out, nil
}

// batchDims returns the shared length of the non-nil vectors, or -1 when
// every vector is nil. Non-finite components are rejected here so that a bad
// row fails the call before any hashing starts.
func batchDims(vectors [][]float64) (int, error) {
	dims, first := -1, -1
	for i, v := range vectors {
		if v == nil {
			continue
		}
		if dims < 0 {
			dims, first = len(v), i
		} else if len(v) != dims {
			return 0, fmt.Errorf("%w: row %d has %d components, row %d has %d",
				lsherrors.ErrDimensionMismatch, first, dims, i, len(v))
		}
		if err := engine.CheckFinite(v); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return dims, nil
}

// Euclidean hashes vectors with the default Hasher.
func Euclidean(vectors [][]float64, p EuclideanParams) ([][]uint64, error) {
	return Default().Euclidean(vectors, p)
}

// Euclidean32 hashes vectors with the default Hasher.
func Euclidean32(vectors [][]float64, p EuclideanParams) ([][]uint32, error) {
	return Default().Euclidean32(vectors, p)
}
