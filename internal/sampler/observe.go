package sampler

import (
	"context"
	"fmt"
	"time"
)

// Observe takes one observation: it classifies idle state from
// the sampler's idle duration against the threshold, stamps the
// sample with now, and normalizes idle samples to the sentinel
// identity.
func Observe(
	ctx context.Context,
	sp Sampler,
	idleThreshold time.Duration,
	now time.Time,
) (Sample, error) {
	idleSec, err := sp.IdleSeconds(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("reading idle time: %w", err)
	}

	s := Sample{Time: now}
	if time.Duration(idleSec)*time.Second >= idleThreshold {
		s.Idle = true
		return s.Normalize(), nil
	}

	s, err = sp.Sample(ctx)
	if err != nil {
		return Sample{}, fmt.Errorf("sampling foreground: %w", err)
	}
	s.Time = now
	s.Idle = false
	return s, nil
}
