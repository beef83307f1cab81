package aamva

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds ParseBatch when no limit is given.
const DefaultBatchConcurrency = 8

// ParseBatch parses scans concurrently. The returned slice is index-aligned
// with raws. Scans not started before ctx is done fail with ctx.Err().
func ParseBatch(ctx context.Context, raws []string, limit int) []Outcome {
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}
	out := make([]Outcome, len(raws))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i] = Outcome{Err: err}
				return nil
			}
			out[i] = ParseOutcome(raw)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
