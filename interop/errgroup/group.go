// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics on top of the fiber runtime. It enables incremental migration of
// errgroup-shaped call sites without exposing them to fiber computations.
package errgroup

import (
	"sync"

	"github.com/NetPo4ki/go-fiber/fiber"
)

// Group is an errgroup-like wrapper over fiber forks. The first non-nil
// error wins and interrupts the remaining tasks (fail-fast semantics).
type Group struct {
	rt *fiber.Runtime

	mu      sync.Mutex
	handles []*fiber.Fiber

	errOnce  sync.Once
	firstErr error
}

// WithRuntime creates a Group that forks its tasks on rt.
func WithRuntime(rt *fiber.Runtime) *Group {
	return &Group{rt: rt}
}

// Go starts f as a fiber. It should return a non-nil error to signal
// failure; the error interrupts the group's other tasks.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	h := g.rt.Fork(func(*fiber.Turn) fiber.Result {
		if err := f(); err != nil {
			g.fail(err)
			return fiber.Fail(err)
		}
		return fiber.End(nil)
	})
	g.mu.Lock()
	g.handles = append(g.handles, h)
	failed := g.firstErr != nil
	g.mu.Unlock()
	if failed {
		// The group already failed; tasks added afterwards are cancelled
		// like errgroup's context would have cancelled them.
		h.RequestInterrupt()
	}
}

// Wait blocks until every task has finished. It returns the first non-nil
// error, or nil when all tasks succeeded.
func (g *Group) Wait() error {
	g.mu.Lock()
	handles := make([]*fiber.Fiber, len(g.handles))
	copy(handles, g.handles)
	g.mu.Unlock()

	for _, h := range handles {
		h.Await()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.firstErr
}

func (g *Group) fail(err error) {
	g.errOnce.Do(func() {
		g.mu.Lock()
		g.firstErr = err
		handles := make([]*fiber.Fiber, len(g.handles))
		copy(handles, g.handles)
		g.mu.Unlock()
		for _, h := range handles {
			h.RequestInterrupt()
		}
	})
}
