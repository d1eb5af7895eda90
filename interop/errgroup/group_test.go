package errgroup

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/NetPo4ki/go-fiber/fiber"
)

func TestGroupWaitSuccess(t *testing.T) {
	t.Parallel()
	rt := fiber.New()
	defer rt.Close()

	var done atomic.Int32
	g := WithRuntime(rt)
	g.Go(func() error { done.Add(1); return nil })
	g.Go(func() error { done.Add(1); return nil })
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := done.Load(); got != 2 {
		t.Fatalf("expected both tasks to run, got %d", got)
	}
}

func TestGroupFirstErrorWins(t *testing.T) {
	t.Parallel()
	rt := fiber.New()
	defer rt.Close()

	boom := errors.New("boom")
	g := WithRuntime(rt)
	g.Go(func() error { return boom })
	g.Go(func() error { return nil })
	if err := g.Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	// Wait is idempotent.
	if err := g.Wait(); !errors.Is(err, boom) {
		t.Fatalf("second Wait returned %v", err)
	}
}

func TestGroupFailFastInterruptsQueuedTasks(t *testing.T) {
	t.Parallel()
	// One worker: the failing task runs first and the second is still
	// queued when the interrupt lands.
	rt := fiber.New(fiber.WithWorkers(1))
	defer rt.Close()

	boom := errors.New("boom")
	var ran atomic.Bool
	g := WithRuntime(rt)
	g.Go(func() error { return boom })
	g.Go(func() error { ran.Store(true); return nil })

	if err := g.Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran.Load() {
		t.Fatal("queued task should have been interrupted before running")
	}
}
