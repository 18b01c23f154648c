package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamirms/lshsig"
	lsherrors "github.com/tamirms/lshsig/errors"
)

// vectorRow is one input line: {"vector": [1.0, 2.0]}. A null or missing
// vector is a NULL row.
type vectorRow struct {
	Vector []float64 `json:"vector"`
}

func newEuclideanCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "euclidean",
		Short: "p-stable LSH signatures of numeric vectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(load, cmd, runEuclidean)
		},
	}
	addBandFlags(cmd)
	cmd.Flags().Float64("bucket-width", DefaultBucketWidth, "quantization step along each projection")
	return cmd
}

func runEuclidean(a *app) error {
	if a.cfg.Bits == 32 {
		return runEuclideanWidth(a, a.hasher.Euclidean32)
	}
	return runEuclideanWidth(a, a.hasher.Euclidean)
}

func runEuclideanWidth[T word](a *app, hash func([][]float64, lshsig.EuclideanParams) ([][]T, error)) error {
	p := lshsig.EuclideanParams{BucketWidth: a.cfg.BucketWidth, BandParams: a.bandParams()}
	if _, err := hash(nil, p); err != nil {
		return err
	}

	sink, err := newSignatureSink[T](a, lshsig.TableSpec{
		Kind:        lshsig.TableEuclidean,
		Bits:        a.cfg.Bits,
		BucketWidth: p.BucketWidth,
		BandParams:  p.BandParams,
	})
	if err != nil {
		return err
	}
	defer sink.close()

	// Signatures are only comparable within one dimensionality, so it must
	// hold across batches as well as within them.
	dims := -1
	vectors := make([][]float64, 0, a.cfg.BatchSize)
	err = runBatches(a, "euclidean", func(rows []vectorRow, first int) error {
		vectors = vectors[:0]
		batchDims := -1
		for _, r := range rows {
			vectors = append(vectors, r.Vector)
			if batchDims < 0 && r.Vector != nil {
				batchDims = len(r.Vector)
			}
		}
		if batchDims >= 0 {
			if dims >= 0 && batchDims != dims {
				return fmt.Errorf("%w: rows %d-%d have %d components, earlier rows have %d",
					lsherrors.ErrDimensionMismatch, first, first+len(rows)-1, batchDims, dims)
			}
			dims = batchDims
		}

		sigs, err := hash(vectors, p)
		if err != nil {
			return fmt.Errorf("rows %d-%d: %w", first, first+len(rows)-1, err)
		}
		return sink.write(sigs, batchDims)
	})
	if err != nil {
		return err
	}
	return sink.finish()
}
