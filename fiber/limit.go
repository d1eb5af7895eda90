package fiber

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds concurrently executing fiber steps.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

type weightedLimiter struct {
	sem *semaphore.Weighted
}

func newWeightedLimiter(n int64) Limiter {
	if n <= 0 {
		return nil
	}
	return &weightedLimiter{sem: semaphore.NewWeighted(n)}
}

func (l *weightedLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *weightedLimiter) Release() {
	l.sem.Release(1)
}
