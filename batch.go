package lshsig

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// forEachRow calls fn for every row index in [0, n). With more than one
// worker the range is split into chunks hashed concurrently; fn must only
// write state owned by its row so the result does not depend on scheduling.
// The first error stops dispatch of further chunks and is returned.
func (h *Hasher) forEachRow(op operation, n int, fn func(i int) error) error {
	workers, chunk := h.cfg.workers, h.cfg.chunkSize
	if workers <= 1 || n <= chunk {
		for i := range n {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	chunks := (n + chunk - 1) / chunk
	h.cfg.logger.Debug("dispatching batch",
		"op", op.String(),
		"rows", n,
		"chunks", chunks,
		"workers", workers)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
		if ctx.Err() != nil {
			break
		}
	}
	return g.Wait()
}
