package family

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries is the default number of families kept by a Cache.
const DefaultMaxEntries = 64

// Stats holds cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Derivations int64 // Families actually computed; at most Misses.
	Entries     int
	MaxEntries  int // 0 when caching is disabled.
}

// HitRate returns the cache hit rate as a fraction (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache memoises derived families by Key. It is safe for concurrent use.
//
// Concurrent misses on the same key are collapsed with singleflight so a
// family is derived once; callers then share the same immutable value.
// Eviction is LRU by entry count. The cache never affects results: a family
// is a pure function of its key.
type Cache struct {
	mu         sync.Mutex
	lru        *simplelru.LRU[Key, any] // nil when disabled
	maxEntries int
	group      singleflight.Group
	logger *slog.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	derivations atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxEntries bounds the number of cached families. n <= 0 disables
// caching: every lookup derives a fresh family.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		c.lru, c.maxEntries = newLRU(n), max(n, 0)
	}
}

// WithLogger sets the logger used for derivation records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a cache holding up to DefaultMaxEntries families.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		lru:        newLRU(DefaultMaxEntries),
		maxEntries: DefaultMaxEntries,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MinHash returns the MinHash family for key.
func (c *Cache) MinHash(key Key) (*MinHash, error) {
	key.Kind = KindMinHash
	key.Dims = 0
	return load(c, key, NewMinHash)
}

// Euclidean returns the Euclidean family for key.
func (c *Cache) Euclidean(key Key) (*Euclidean, error) {
	key.Kind = KindEuclidean
	return load(c, key, NewEuclidean)
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Derivations: c.derivations.Load(),
	}
	if c.lru != nil {
		s.Entries = c.lru.Len()
		s.MaxEntries = c.maxEntries
	}
	return s
}

func load[F any](c *Cache, key Key, derive func(Key) (*F, error)) (*F, error) {
	// Invalid keys are never cached or counted.
	if err := key.Validate(); err != nil {
		return nil, err
	}

	if c.lru == nil {
		c.misses.Add(1)
		return deriveFamily(c, key, derive)
	}

	c.mu.Lock()
	v, ok := c.lru.Get(key)
	c.mu.Unlock()
	if ok {
		c.hits.Add(1)
		return v.(*F), nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// A concurrent flight may have populated the entry between our
		// lookup and this call.
		c.mu.Lock()
		cached, ok := c.lru.Get(key)
		c.mu.Unlock()
		if ok {
			return cached, nil
		}

		fam, err := deriveFamily(c, key, derive)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.lru.Add(key, fam)
		c.mu.Unlock()
		return fam, nil
	})
	if err != nil {
		return nil, err
	}
	fam, ok := v.(*F)
	if !ok {
		return nil, fmt.Errorf("family cache: unexpected value %T for %s", v, key)
	}
	return fam, nil
}

// newLRU returns an LRU bounded to n entries, or nil when n <= 0.
func newLRU(n int) *simplelru.LRU[Key, any] {
	if n <= 0 {
		return nil
	}
	l, err := simplelru.NewLRU[Key, any](n, nil)
	if err != nil {
		// NewLRU only fails for a non-positive size.
		panic(err)
	}
	return l
}

func deriveFamily[F any](c *Cache, key Key, derive func(Key) (*F, error)) (*F, error) {
	fam, err := derive(key)
	if err != nil {
		return nil, err
	}
	c.derivations.Add(1)
	c.logger.Debug("derived hash family",
		slog.String("kind", key.Kind.String()),
		slog.Uint64("seed", key.Seed),
		slog.Int("band_count", key.BandCount),
		slog.Int("band_size", key.BandSize),
		slog.Int("dims", key.Dims),
		slog.Int("bits", key.Bits),
	)
	return fam, nil
}
