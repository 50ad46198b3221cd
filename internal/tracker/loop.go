package tracker

import (
	"context"
	"log"
	"time"

	"focuswatch/internal/sampler"
)

// LoopOptions configures the polling loop.
type LoopOptions struct {
	Interval      time.Duration // sample cadence
	IdleThreshold time.Duration // idle classification boundary
}

// Loop polls the sampler at a fixed interval and advances the
// state machine, strictly sequentially. A failed observation
// skips the tick; identity state is untouched. On cancellation
// the open session is flushed before returning.
func (t *Tracker) Loop(
	ctx context.Context, sp sampler.Sampler, opts LoopOptions,
) {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The loop context is gone; flush with a fresh one so
			// the final write still goes through.
			flushCtx, cancel := context.WithTimeout(
				context.Background(), 5*time.Second,
			)
			t.Flush(flushCtx)
			cancel()
			return

		case <-ticker.C:
			s, err := sampler.Observe(
				ctx, sp, opts.IdleThreshold, t.now(),
			)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("tracker: %v", err)
				}
				continue
			}
			t.Advance(ctx, s)
		}
	}
}
