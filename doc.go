// Package lshsig computes locality-sensitive hash (LSH) signatures for
// record linkage and similarity joins.
//
// Two schemes are provided. MinHash signatures approximate Jaccard
// similarity between shingle sets (character n-grams of a string, or
// caller-supplied tokens). Euclidean signatures use p-stable random
// projections so that vectors close in L2 distance tend to share buckets.
// In both, the K = bandCount*bandSize per-function values are grouped into
// bands and each band is folded into one integer; two rows are candidate
// matches when they agree on at least one band. Every signature comes in a
// 64-bit and a 32-bit variant. Jaccard computes the exact similarity.
//
// All operations are pure functions of their arguments: the same input,
// parameters and seed always produce the same signature, on any machine and
// for any worker count.
//
// # Basic Usage
//
// Hashing a column of strings:
//
//	texts := []sql.NullString{
//	    {String: "Michael Wilson", Valid: true},
//	    {String: "Mike Wilson", Valid: true},
//	    {}, // NULL
//	}
//	sigs, err := lshsig.MinHash(texts, lshsig.MinHashParams{
//	    NgramWidth: 2,
//	    BandParams: lshsig.BandParams{BandCount: 16, BandSize: 4, Seed: 42},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// sigs[2] is nil: NULL in, NULL out.
//
// Parallel hashing with a dedicated Hasher:
//
//	h := lshsig.New(lshsig.WithWorkers(8), lshsig.WithLogger(logger))
//	sigs, err := h.Euclidean(vectors, lshsig.EuclideanParams{
//	    BucketWidth: 0.5,
//	    BandParams:  lshsig.BandParams{BandCount: 8, BandSize: 3, Seed: 123},
//	})
//
// # NULL handling
//
// A NULL row (an invalid sql.NullString, or a nil slice) yields a nil
// signature or an invalid sql.NullFloat64. Parameters are validated once per
// call, before any row is processed; invalid parameters fail the whole call
// with an error wrapping errors.ErrInvalidParameter and never turn into NULL.
//
// # Package Structure
//
//   - Public API: hasher.go (New, Hasher), minhash.go, euclidean.go, jaccard.go
//   - Parameters: params.go (validation, ConstantParam), probability.go
//   - Configuration: options.go (Option, With* functions)
//   - Batch execution: batch.go (errgroup workers)
//   - Metrics: metrics.go (prometheus collector)
//   - Signature tables: header.go, table_writer.go, table.go
//   - Internals: internal/shingle, internal/family (generation and cache),
//     internal/width (32/64-bit policies), internal/engine, internal/bits
package lshsig
