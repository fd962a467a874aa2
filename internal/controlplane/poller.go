package controlplane

import (
	"context"
	"time"
)

// PollInterval is the refresh cadence for the process supervisor and the
// console tail.
const PollInterval = 3 * time.Second

// Poll runs fn immediately, then once per interval until ctx is cancelled.
// fn receives the loop context; implementations must check ctx before storing
// results so that responses landing after cancellation are dropped.
func Poll(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		interval = PollInterval
	}
	fn(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
