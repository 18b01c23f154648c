// Package bits provides low-level bit mixing primitives shared by the hash
// family generator and the width policies.
package bits

// Splitmix64 constants (Stafford variant 13, from splitmix64.c by Sebastiano Vigna).
const (
	golden = 0x9e3779b97f4a7c15
	mul1   = 0xbf58476d1ce4e5b9
	mul2   = 0x94d049bb133111eb
)

// Mix64 applies the splitmix64 finalizer. It is a bijection on uint64 with
// full avalanche: every input bit affects every output bit.
func Mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= mul1
	x ^= x >> 27
	x *= mul2
	x ^= x >> 31
	return x
}

// SplitMix64At returns the i-th output of the splitmix64 stream started at
// state. The stream is counter-based: any index can be computed without
// generating the ones before it.
func SplitMix64At(state uint64, i uint64) uint64 {
	return Mix64(state + (i+1)*golden)
}

// ZigZag64 maps a signed integer onto uint64 so that values of small
// magnitude get small codes: 0→0, -1→1, 1→2, -2→3, ...
// The mapping is a bijection.
func ZigZag64(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

// ZigZag32 is ZigZag64 for int32.
func ZigZag32(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}
