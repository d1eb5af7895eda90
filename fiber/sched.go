package fiber

import (
	"context"
	"sync"
	"time"
)

const (
	reasonAwait      = "await"
	reasonSleep      = "sleep"
	reasonScopeClose = "scope-close"
)

// scheduler is the cooperative execution engine: a FIFO ready queue drained
// by worker goroutines. A worker runs one fiber step to its next Result and
// never preempts mid-step.
type scheduler struct {
	rt *Runtime

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*Fiber
	closed bool
	wg     sync.WaitGroup
}

func newScheduler(rt *Runtime) *scheduler {
	s := &scheduler{rt: rt}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *scheduler) start(workers int) {
	if workers < 1 {
		workers = 1
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
}

// stop shuts the workers down once the queue drains. Fibers still parked on
// wait conditions are abandoned; Runtime.Close interrupts them first.
func (s *scheduler) stop() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
}

// enqueue admits f to the back of the ready queue. The queued flag ensures a
// fiber is admitted at most once per suspension.
func (s *scheduler) enqueue(f *Fiber) {
	f.mu.Lock()
	if f.queued || f.state == StateDone {
		f.mu.Unlock()
		return
	}
	f.queued = true
	f.mu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, f)
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *scheduler) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		f := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		if len(s.queue) == 0 {
			s.queue = nil
		}
		s.mu.Unlock()
		s.rt.step(f)
	}
}

// step advances one fiber by one synchronous segment.
func (rt *Runtime) step(f *Fiber) {
	if rt.lim != nil {
		if err := rt.lim.Acquire(context.Background()); err != nil {
			return
		}
		defer rt.lim.Release()
	}

	f.mu.Lock()
	f.queued = false
	if f.state == StateDone {
		f.mu.Unlock()
		return
	}
	if f.state == StateInterrupting || f.interruptFlag.Load() {
		f.state = StateInterrupting
		f.mu.Unlock()
		rt.finish(f, outcomeInterrupted)
		return
	}

	// Pick the continuation for this segment: an await resumption, a scope
	// close resumption, or the plain next computation.
	var run func(*Turn) Result
	switch {
	case f.resume != nil:
		k, o := f.resume, f.delivered
		f.resume = nil
		run = func(t *Turn) Result { return k(t, o) }
	case f.closeResume != nil:
		k, e := f.closeResume, f.closeErr
		f.closeResume = nil
		run = func(t *Turn) Result { return k(t, e) }
	case f.next != nil:
		k := f.next
		f.next = nil
		run = k
	default:
		f.mu.Unlock()
		rt.finish(f, SuccessOf(nil))
		return
	}
	f.state = StateRunning
	f.mu.Unlock()

	t := &Turn{f: f, rt: rt}
	res := rt.exec(t, run)

	// This is the segment's end — a suspension, yield, or completion — so
	// fibers forked during it become runnable now, before anything else.
	rt.release(f)

	// Interrupts raised during the segment are observed here, unless the
	// fiber completed naturally first.
	if res.kind != resultEnd && f.interruptFlag.Load() {
		rt.finish(f, outcomeInterrupted)
		return
	}

	switch res.kind {
	case resultEnd:
		rt.finish(f, res.outcome)

	case resultYield:
		if res.next == nil {
			rt.finish(f, SuccessOf(nil))
			return
		}
		f.mu.Lock()
		f.next = res.next
		f.mu.Unlock()
		rt.sched.enqueue(f)

	case resultAwait:
		if res.target == nil || res.resume == nil {
			rt.finish(f, FailureOf(errMalformedResult))
			return
		}
		f.mu.Lock()
		f.state = StateSuspended
		f.reason = reasonAwait
		f.waitGen++
		gen := f.waitGen
		f.resume = res.resume
		f.mu.Unlock()
		if rt.obs != nil {
			rt.obs.FiberSuspended(f.id, reasonAwait)
		}
		res.target.watch(func(o Outcome) { f.deliver(gen, o) })
		f.recheckInterrupt()

	case resultSleep:
		f.mu.Lock()
		f.state = StateSuspended
		f.reason = reasonSleep
		f.waitGen++
		gen := f.waitGen
		f.next = res.next
		if f.next == nil {
			f.next = func(*Turn) Result { return End(nil) }
		}
		f.mu.Unlock()
		if rt.obs != nil {
			rt.obs.FiberSuspended(f.id, reasonSleep)
		}
		time.AfterFunc(res.delay, func() { f.wake(gen) })
		f.recheckInterrupt()

	case resultClose:
		if res.scope == nil || res.closeResume == nil {
			rt.finish(f, FailureOf(errMalformedResult))
			return
		}
		f.mu.Lock()
		f.state = StateSuspended
		f.reason = reasonScopeClose
		f.waitGen++
		gen := f.waitGen
		f.closeResume = res.closeResume
		f.mu.Unlock()
		if rt.obs != nil {
			rt.obs.FiberSuspended(f.id, reasonScopeClose)
		}
		// Close blocks on attached fibers, so it runs off the worker pool.
		sc := res.scope
		go func() { f.deliverClose(gen, sc.Close()) }()
		f.recheckInterrupt()
	}
}

// exec runs one segment with panic containment.
func (rt *Runtime) exec(t *Turn, run func(*Turn) Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			pe := newPanicError(r)
			if rt.opts.PanicAsError {
				res = Fail(pe)
			} else {
				panic(pe)
			}
		}
	}()
	return run(t)
}

// release moves the fibers forked during the last segment to the ready
// queue, in fork order.
func (rt *Runtime) release(f *Fiber) {
	for _, child := range f.takePending() {
		rt.sched.enqueue(child)
	}
}
