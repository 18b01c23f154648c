package lshsig

import "math"

// CollisionProbability returns the probability that two rows whose per-function
// collision probability is s agree on at least one band:
//
//	1 - (1 - s^bandSize)^bandCount
//
// For MinHash, s is the Jaccard similarity of the two shingle sets.
// Out-of-range s is clamped to [0, 1]; non-positive banding returns 0.
func CollisionProbability(s float64, bandCount, bandSize int) float64 {
	if bandCount <= 0 || bandSize <= 0 || math.IsNaN(s) {
		return 0
	}
	s = min(max(s, 0), 1)
	return 1 - math.Pow(1-math.Pow(s, float64(bandSize)), float64(bandCount))
}

// Threshold returns the similarity (1/bandCount)^(1/bandSize) at which the
// candidate S-curve is steepest. Pairs above it are likely to collide.
func Threshold(bandCount, bandSize int) float64 {
	if bandCount <= 0 || bandSize <= 0 {
		return 0
	}
	return math.Pow(1/float64(bandCount), 1/float64(bandSize))
}
