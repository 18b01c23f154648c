package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// TestMix64KnownValues pins the finalizer so family derivation stays stable
// across releases.
func TestMix64KnownValues(t *testing.T) {
	if got := Mix64(0); got != 0 {
		t.Errorf("Mix64(0) = 0x%X, want 0", got)
	}
	// First output of the reference splitmix64 generator seeded with 0.
	if got := SplitMix64At(0, 0); got != 0xE220A8397B1DCDAF {
		t.Errorf("SplitMix64At(0, 0) = 0x%X, want 0xE220A8397B1DCDAF", got)
	}
}

// TestMix64Injective checks that random distinct inputs never collide.
func TestMix64Injective(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 100000

	seen := make(map[uint64]uint64, iterations)
	for i := 0; i < iterations; i++ {
		x := rng.Uint64()
		y := Mix64(x)
		if prev, ok := seen[y]; ok && prev != x {
			t.Fatalf("iter %d: Mix64(0x%X) == Mix64(0x%X) == 0x%X", i, x, prev, y)
		}
		seen[y] = x
	}
}

// TestMix64Avalanche verifies that flipping one input bit flips roughly half
// of the output bits on average.
func TestMix64Avalanche(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 2000

	var flipped, total int
	for i := 0; i < iterations; i++ {
		x := rng.Uint64()
		bit := rng.UintN(64)
		d := Mix64(x) ^ Mix64(x^(1<<bit))
		for ; d != 0; d &= d - 1 {
			flipped++
		}
		total += 64
	}
	ratio := float64(flipped) / float64(total)
	if ratio < 0.45 || ratio > 0.55 {
		t.Errorf("avalanche ratio %.3f, want ~0.5", ratio)
	}
}

// TestSplitMix64AtCounterBased verifies that outputs depend on (state, i) only.
func TestSplitMix64AtCounterBased(t *testing.T) {
	a := make([]uint64, 16)
	for i := range a {
		a[i] = SplitMix64At(42, uint64(i))
	}
	for i := len(a) - 1; i >= 0; i-- {
		if got := SplitMix64At(42, uint64(i)); got != a[i] {
			t.Fatalf("index %d: got 0x%X on second pass, want 0x%X", i, got, a[i])
		}
	}
	for i := 1; i < len(a); i++ {
		if a[i] == a[i-1] {
			t.Fatalf("indexes %d and %d share output 0x%X", i-1, i, a[i])
		}
	}
}

// TestZigZag64 tests deterministic edge cases and the ordering of small magnitudes.
func TestZigZag64(t *testing.T) {
	cases := []struct {
		in   int64
		want uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, tc := range cases {
		if got := ZigZag64(tc.in); got != tc.want {
			t.Errorf("ZigZag64(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// TestZigZag32 mirrors TestZigZag64 for the 32-bit variant.
func TestZigZag32(t *testing.T) {
	cases := []struct {
		in   int32
		want uint32
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{math.MaxInt32, math.MaxUint32 - 1},
		{math.MinInt32, math.MaxUint32},
	}
	for _, tc := range cases {
		if got := ZigZag32(tc.in); got != tc.want {
			t.Errorf("ZigZag32(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// TestZigZagAdjacentDistinct verifies that neighbouring buckets never share a code.
func TestZigZagAdjacentDistinct(t *testing.T) {
	rng := newTestRNG(t)
	for i := 0; i < 10000; i++ {
		v := int64(rng.Uint64()>>1) - math.MaxInt64/2
		if ZigZag64(v) == ZigZag64(v+1) {
			t.Fatalf("ZigZag64(%d) == ZigZag64(%d)", v, v+1)
		}
	}
}
