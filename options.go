package lshsig

import (
	"log/slog"

	"github.com/tamirms/lshsig/internal/family"
)

const defaultChunkSize = 1024

// Option is a functional option for configuring a Hasher.
type Option func(*config)

type config struct {
	workers      int
	chunkSize    int
	cacheEntries int
	logger       *slog.Logger
}

func defaultConfig() *config {
	return &config{
		workers:      1, // Single-threaded; use WithWorkers(n) to parallelize
		chunkSize:    defaultChunkSize,
		cacheEntries: family.DefaultMaxEntries,
		logger:       slog.New(slog.DiscardHandler),
	}
}

// WithWorkers sets the number of goroutines hashing one batch.
// Values below 1 are treated as 1.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = max(n, 1)
	}
}

// WithChunkSize sets the number of rows handed to a worker at a time.
// Batches no larger than one chunk are hashed on the calling goroutine.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithFamilyCacheSize bounds the number of derived hash families kept in
// memory. 0 disables the cache; results are identical either way.
func WithFamilyCacheSize(n int) Option {
	return func(c *config) {
		c.cacheEntries = max(n, 0)
	}
}

// WithLogger sets the logger for debug records about family derivation and
// batch dispatch. Nil keeps the default, which discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
