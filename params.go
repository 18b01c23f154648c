package lshsig

import (
	"fmt"
	"math"

	lsherrors "github.com/tamirms/lshsig/errors"
	"github.com/tamirms/lshsig/internal/family"
)

// BandParams are the banding parameters shared by every signature scheme.
// A signature has BandCount entries, each folding BandSize hash values.
type BandParams struct {
	BandCount int
	BandSize  int
	Seed      uint64
}

// MinHashParams configures MinHash over character n-grams.
type MinHashParams struct {
	NgramWidth int
	BandParams
}

// EuclideanParams configures p-stable Euclidean LSH. BucketWidth is the
// quantization step along each projection.
type EuclideanParams struct {
	BucketWidth float64
	BandParams
}

func (p BandParams) key(kind family.Kind, bits, dims int) family.Key {
	return family.Key{
		Kind:      kind,
		Seed:      p.Seed,
		BandCount: p.BandCount,
		BandSize:  p.BandSize,
		Dims:      dims,
		Bits:      bits,
	}
}

func (p BandParams) validate() error {
	// Bits and dims are always valid here; only banding is under test.
	return p.key(family.KindMinHash, 64, 0).Validate()
}

func validateNgramWidth(w int) error {
	if w <= 0 {
		return fmt.Errorf("%w: ngram_width must be positive, got %d", lsherrors.ErrInvalidParameter, w)
	}
	return nil
}

func (p MinHashParams) validate() error {
	if err := validateNgramWidth(p.NgramWidth); err != nil {
		return err
	}
	return p.BandParams.validate()
}

func (p EuclideanParams) validate() error {
	if !(p.BucketWidth > 0) || math.IsInf(p.BucketWidth, 0) {
		return fmt.Errorf("%w: bucket_width must be positive and finite, got %v", lsherrors.ErrInvalidParameter, p.BucketWidth)
	}
	return p.BandParams.validate()
}

// ConstantParam returns the single value of a parameter column. Hosts that
// pass parameters as per-row columns use it to reject batches where a fixed
// parameter varies. An empty column yields the zero value and no error.
func ConstantParam[T comparable](name string, values []T) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, nil
	}
	first := values[0]
	for i, v := range values[1:] {
		if v != first {
			return zero, fmt.Errorf("%w: %s is %v at row 0 but %v at row %d",
				lsherrors.ErrNonConstantParameter, name, first, v, i+1)
		}
	}
	return first, nil
}

// checkColumns rejects argument columns of different lengths.
func checkColumns(a, b int) error {
	if a != b {
		return fmt.Errorf("%w: argument columns have different lengths (%d and %d)",
			lsherrors.ErrInvalidParameter, a, b)
	}
	return nil
}
