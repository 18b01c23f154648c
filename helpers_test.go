package lshsig

import (
	"database/sql"
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"
)

const (
	testSeed1 = 0x243F6A8885A308D3
	testSeed2 = 0x13198A2E03707344
)

// newTestRNG returns a PCG generator seeded from the test name, so every
// test sees its own reproducible stream.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// texts wraps strings as non-NULL column values.
func texts(ss ...string) []sql.NullString {
	out := make([]sql.NullString, len(ss))
	for i, s := range ss {
		out[i] = sql.NullString{String: s, Valid: true}
	}
	return out
}

const testAlphabet = "abcdefghijklmnopqrstuvwxyz éü"

// randomTexts returns n random strings of 0..maxLen code points; roughly one
// in ten is NULL.
func randomTexts(rng *rand.Rand, n, maxLen int) []sql.NullString {
	alphabet := []rune(testAlphabet)
	out := make([]sql.NullString, n)
	for i := range out {
		if rng.IntN(10) == 0 {
			continue
		}
		runes := make([]rune, rng.IntN(maxLen+1))
		for j := range runes {
			runes[j] = alphabet[rng.IntN(len(alphabet))]
		}
		out[i] = sql.NullString{String: string(runes), Valid: true}
	}
	return out
}

// randomVectors returns n vectors of dims standard normal components;
// roughly one in ten is nil.
func randomVectors(rng *rand.Rand, n, dims int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		if rng.IntN(10) == 0 {
			continue
		}
		out[i] = make([]float64, dims)
		for j := range out[i] {
			out[i][j] = rng.NormFloat64()
		}
	}
	return out
}

var testBands = BandParams{BandCount: 16, BandSize: 4, Seed: 42}
