package statesync

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Throttler bounds the number of concurrent external-storage fetches
// a node will issue, separately for a node that is catching up to the
// chain tip versus one still syncing from genesis; the caller picks
// which weighted semaphore to hand a given shard based on that
// distinction, matching how the node-wide fetch budget is split.
type Throttler struct {
	sem *semaphore.Weighted
}

// NewThrottler builds a throttler allowing up to n concurrent permits.
func NewThrottler(n int64) *Throttler {
	return &Throttler{sem: semaphore.NewWeighted(n)}
}

// TryAcquire takes one permit without blocking, returning false if the
// throttler is already at capacity. The driver never blocks on
// external fetch concurrency; a shard that cannot get a permit this
// tick is retried on the next one.
func (t *Throttler) TryAcquire() bool {
	return t.sem.TryAcquire(1)
}

// Release returns a permit acquired by TryAcquire.
func (t *Throttler) Release() {
	t.sem.Release(1)
}

// Acquire blocks until a permit is available or ctx is done. Nothing
// in this module calls it; the driver loop only uses TryAcquire.
func (t *Throttler) Acquire(ctx context.Context) error {
	return t.sem.Acquire(ctx, 1)
}
