package engine

import (
	"github.com/tamirms/lshsig/internal/family"
	"github.com/tamirms/lshsig/internal/shingle"
	"github.com/tamirms/lshsig/internal/width"
)

// MinHash returns the banded MinHash signature of set.
//
// For function i the value is the minimum of Hash(s, seed_i) over all
// shingles s. An empty set leaves every function at p.Empty(), so all empty
// inputs share one signature for a given family.
func MinHash[T width.Word, P width.Policy[T]](p P, set shingle.Set, fam *family.MinHash, bandCount, bandSize int) []T {
	seeds := fam.Seeds[:bandCount*bandSize]
	mins := make([]T, len(seeds))
	empty := p.Empty()
	for i := range mins {
		mins[i] = empty
	}
	for s := range set {
		for i, fn := range seeds {
			if h := p.Hash(s, fn); h < mins[i] {
				mins[i] = h
			}
		}
	}
	return Band(p, mins, bandCount, bandSize)
}
