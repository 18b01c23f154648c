package lshsig

import (
	"sync"
	"sync/atomic"

	"github.com/tamirms/lshsig/internal/family"
)

// operation identifies a public hashing entry point for row accounting.
type operation int

const (
	opMinHash operation = iota
	opMinHash32
	opMinHashShingles
	opMinHashShingles32
	opEuclidean
	opEuclidean32
	opJaccard
	opJaccardShingles
	numOperations
)

var operationNames = [numOperations]string{
	opMinHash:           "minhash",
	opMinHash32:         "minhash32",
	opMinHashShingles:   "minhash_shingles",
	opMinHashShingles32: "minhash_shingles32",
	opEuclidean:         "euclidean",
	opEuclidean32:       "euclidean32",
	opJaccard:           "jaccard",
	opJaccardShingles:   "jaccard_shingles",
}

// String returns the operation's metric label.
func (o operation) String() string {
	if o < 0 || o >= numOperations {
		return "unknown"
	}
	return operationNames[o]
}

// rowCounters counts rows per outcome for one operation.
type rowCounters struct {
	hashed atomic.Int64
	null   atomic.Int64
}

// CacheStats holds hash-family cache counters.
type CacheStats = family.Stats

// Hasher computes signatures. It holds configuration and the hash-family
// cache and is safe for concurrent use; create one per process or per
// distinct configuration.
type Hasher struct {
	cfg      *config
	families *family.Cache
	rows     [numOperations]rowCounters
}

// New creates a Hasher.
func New(opts ...Option) *Hasher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Hasher{
		cfg: cfg,
		families: family.NewCache(
			family.WithMaxEntries(cfg.cacheEntries),
			family.WithLogger(cfg.logger),
		),
	}
}

var defaultHasher = sync.OnceValue(func() *Hasher { return New() })

// Default returns the Hasher used by the package-level functions.
// It is single-threaded and caches up to 64 families.
func Default() *Hasher {
	return defaultHasher()
}

// CacheStats returns the hash-family cache counters.
func (h *Hasher) CacheStats() CacheStats {
	return h.families.Stats()
}

// countRows records how many rows of a finished batch were NULL.
func countRows[T any](h *Hasher, op operation, out [][]T) {
	var nulls int64
	for _, row := range out {
		if row == nil {
			nulls++
		}
	}
	h.rows[op].null.Add(nulls)
	h.rows[op].hashed.Add(int64(len(out)) - nulls)
}
