package fiber

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// No child outlives a Done supervising parent: the parent completes after a
// delay and its looping child must be interrupted.
func TestSupervisedChildInterruptedWhenParentDone(t *testing.T) {
	t.Parallel()
	rt := New()
	defer rt.Close()

	var child *Fiber
	p := rt.Fork(func(tn *Turn) Result {
		child = tn.Fork(yieldForever)
		return Sleep(20*time.Millisecond, func(*Turn) Result { return End(nil) })
	})
	if o := p.Await(); o.Kind != Success {
		t.Fatalf("parent failed: %+v", o)
	}
	if o := child.Await(); o.Kind != Interrupted {
		t.Fatalf("supervised child should be interrupted at parent Done, got %+v", o)
	}
}

func TestSupervisedChildrenAllInterrupted(t *testing.T) {
	t.Parallel()
	rt := New()
	defer rt.Close()

	const n = 8
	children := make([]*Fiber, n)
	p := rt.Fork(func(tn *Turn) Result {
		for i := 0; i < n; i++ {
			children[i] = tn.Fork(yieldForever)
		}
		return End(nil)
	})
	p.Await()
	for i, c := range children {
		if o := c.Await(); o.Kind != Interrupted {
			t.Fatalf("child %d outcome %+v, want Interrupted", i, o)
		}
	}
}

func TestInterruptedParentInterruptsChildren(t *testing.T) {
	t.Parallel()
	rt := New()
	defer rt.Close()

	var child *Fiber
	forked := make(chan struct{})
	p := rt.Fork(func(tn *Turn) Result {
		child = tn.Fork(yieldForever)
		close(forked)
		return Yield(yieldForever)
	})
	<-forked

	if o := p.Interrupt(); o.Kind != Interrupted {
		t.Fatalf("parent outcome %+v", o)
	}
	if o := child.Await(); o.Kind != Interrupted {
		t.Fatalf("child of an interrupted parent should be interrupted, got %+v", o)
	}
}

// Supervision is asynchronous: the parent's Await returns without waiting
// for the children's teardown, but the children are already flagged.
func TestSupervisionDoesNotBlockParentCompletion(t *testing.T) {
	t.Parallel()
	rt := New()
	defer rt.Close()

	slow := make(chan struct{})
	var child *Fiber
	p := rt.Fork(func(tn *Turn) Result {
		child = tn.Fork(func(inner *Turn) Result {
			inner.Defer(func() error { <-slow; return nil })
			return Yield(yieldForever)
		})
		return End(nil)
	})
	if o := p.Await(); o.Kind != Success {
		t.Fatalf("parent must complete without awaiting child teardown: %+v", o)
	}
	close(slow)
	child.Await()
}

// A daemon fiber's lifetime is detached from its parent entirely: parent
// interruption must not touch it; only global-scope closure stops it.
func TestDaemonSurvivesParentInterrupt(t *testing.T) {
	t.Parallel()
	rt := New()

	var ticks atomic.Int64
	var daemon *Fiber
	forked := make(chan struct{})
	var beat Computation
	beat = func(*Turn) Result {
		ticks.Add(1)
		return Sleep(time.Millisecond, beat)
	}
	p := rt.Fork(func(tn *Turn) Result {
		daemon = tn.ForkDaemon(beat)
		close(forked)
		return Yield(yieldForever)
	})
	<-forked

	if o := p.Interrupt(); o.Kind != Interrupted {
		t.Fatalf("parent outcome %+v", o)
	}

	before := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if after := ticks.Load(); after <= before {
		t.Fatalf("daemon stalled after parent interrupt: %d -> %d", before, after)
	}
	if _, done := daemon.Poll(); done {
		t.Fatal("daemon must not be Done while the global scope is open")
	}

	// Process shutdown is the only thing that stops it.
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	o, done := daemon.Poll()
	if !done || o.Kind != Interrupted {
		t.Fatalf("daemon should be interrupted by runtime shutdown, got %+v done=%v", o, done)
	}
}

func TestDaemonSurvivesParentCompletion(t *testing.T) {
	t.Parallel()
	rt := New()
	defer rt.Close()

	var daemon *Fiber
	p := rt.Fork(func(tn *Turn) Result {
		daemon = tn.ForkDaemon(yieldForever)
		return End(nil)
	})
	p.Await()

	time.Sleep(10 * time.Millisecond)
	if _, done := daemon.Poll(); done {
		t.Fatal("daemon must outlive its forking fiber")
	}
}

func TestScopedForkIgnoresParentLifetime(t *testing.T) {
	t.Parallel()
	rt := New()
	defer rt.Close()

	s := rt.NewScope()
	var scoped *Fiber
	p := rt.Fork(func(tn *Turn) Result {
		tn.EnterScope(s)
		defer tn.ExitScope()
		h, err := tn.ForkScoped(yieldForever)
		if err != nil {
			return Fail(err)
		}
		scoped = h
		return End(nil)
	})
	if o := p.Await(); o.Kind != Success {
		t.Fatalf("parent failed: %+v", o)
	}

	// Parent is Done; the scoped fiber must keep running until its scope
	// closes.
	time.Sleep(10 * time.Millisecond)
	if _, done := scoped.Poll(); done {
		t.Fatal("scoped fiber interrupted by parent completion")
	}
	s.Close()
	if o, done := scoped.Poll(); !done || o.Kind != Interrupted {
		t.Fatalf("scoped fiber should stop with its scope, got %+v", o)
	}
}

func TestSupervisedChildrenRegistry(t *testing.T) {
	t.Parallel()
	rt := New()
	defer rt.Close()

	forked := make(chan struct{})
	p := rt.Fork(func(tn *Turn) Result {
		tn.Fork(yieldForever)
		tn.ForkDaemon(yieldForever)
		close(forked)
		return Yield(yieldForever)
	})
	<-forked

	// Only the supervised fork is registered.
	kids := rt.SupervisedChildren(p)
	if len(kids) != 1 {
		t.Fatalf("registry holds %d children, want 1", len(kids))
	}
	p.Interrupt()
	kids[0].Await()
	if left := rt.SupervisedChildren(p); len(left) != 0 {
		t.Fatalf("registry should be empty after teardown, holds %d", len(left))
	}
}

func TestForkAfterRuntimeClose(t *testing.T) {
	t.Parallel()
	rt := New()
	rt.Close()

	f := rt.Fork(func(*Turn) Result { return End(nil) })
	o, done := f.Poll()
	if !done || !errors.Is(o.Err, ErrRuntimeClosed) {
		t.Fatalf("fork after Close should fail with ErrRuntimeClosed, got %+v done=%v", o, done)
	}
	if _, err := rt.ForkIn(nil, rt.GlobalScope()); !errors.Is(err, ErrRuntimeClosed) {
		t.Fatalf("ForkIn after Close: %v", err)
	}
}

func TestRuntimeCloseIdempotent(t *testing.T) {
	t.Parallel()
	rt := New()
	rt.ForkDaemon(yieldForever)
	err1 := rt.Close()
	err2 := rt.Close()
	if err1 != nil || err2 != nil {
		t.Fatalf("Close errors: %v, %v", err1, err2)
	}
}

func TestGlobalScopeFinalizersRunAtShutdown(t *testing.T) {
	t.Parallel()
	rt := New()

	ran := false
	rt.GlobalScope().AddFinalizer(func() error { ran = true; return nil })
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ran {
		t.Fatal("global scope finalizers must run at shutdown")
	}
}
