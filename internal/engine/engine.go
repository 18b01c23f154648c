// Package engine computes banded LSH signatures.
//
// Both engines produce K = bandCount*bandSize per-function values, split
// them into bands [i*bandSize, (i+1)*bandSize) and fold each band with the
// width policy's Combine. The result always has bandCount elements.
package engine

import (
	"github.com/tamirms/lshsig/internal/width"
)

// Band folds values into bandCount band values. len(values) must be at
// least bandCount*bandSize.
func Band[T width.Word, P width.Policy[T]](p P, values []T, bandCount, bandSize int) []T {
	out := make([]T, bandCount)
	scratch := make([]byte, p.ScratchSize(bandSize))
	for b := range bandCount {
		out[b] = p.Combine(b, values[b*bandSize:(b+1)*bandSize], scratch)
	}
	return out
}
