package fiber

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is the scheduling state of a fiber.
type State int

const (
	// StateRunning covers fibers that are executing a step or sitting in the
	// ready queue waiting for a worker.
	StateRunning State = iota

	// StateSuspended fibers are parked on a wait condition (await, sleep,
	// scope close) and hold no worker.
	StateSuspended

	// StateInterrupting fibers have observed an interrupt request and are
	// scheduled to run their unwind.
	StateInterrupting

	// StateDone is terminal; the outcome is immutable once reached.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateInterrupting:
		return "interrupting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Fiber is a handle to an in-progress or completed computation. Handles are
// safe for concurrent use from any goroutine.
type Fiber struct {
	id       uint64
	rt       *Runtime
	forkedAt time.Time

	interruptFlag atomic.Bool

	mu       sync.Mutex
	state    State
	outcome  Outcome
	watchers []func(Outcome)
	queued   bool

	// waitGen invalidates stale wakeups: every suspension bumps it, and a
	// deliver/wake carrying an older generation is dropped. Together with
	// the queued flag this admits a fiber to the ready queue at most once
	// per suspension.
	waitGen   uint64
	delivered Outcome
	closeErr  error

	next        Computation
	resume      func(*Turn, Outcome) Result
	closeResume func(*Turn, error) Result
	reason      string

	scope   *Scope  // governing scope for interrupt-on-close, nil under supervision
	parent  *Fiber  // supervising parent, only under automatic supervision
	scopes  []*Scope
	defers  []func() error
	pending []*Fiber // forked this segment, released at the next suspension point
}

// ID returns the fiber's unique id.
func (f *Fiber) ID() uint64 { return f.id }

// Parent returns the supervising parent fiber, or nil for fibers forked
// without automatic supervision.
func (f *Fiber) Parent() *Fiber { return f.parent }

// Scope returns the governing scope the fiber is attached to for
// interrupt-on-close tracking, or nil under automatic supervision.
func (f *Fiber) Scope() *Scope { return f.scope }

// State returns the fiber's current scheduling state.
func (f *Fiber) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SuspendReason returns the diagnostic reason recorded at the last
// suspension, or "" if the fiber has never suspended.
func (f *Fiber) SuspendReason() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reason
}

// Await blocks the calling goroutine until the fiber reaches Done and
// returns its outcome. If the fiber is already Done it returns the stored
// outcome immediately; repeated calls return the identical value. Fibers
// awaiting other fibers suspend with the Await Result instead.
func (f *Fiber) Await() Outcome {
	ch := make(chan Outcome, 1)
	f.watch(func(o Outcome) { ch <- o })
	return <-ch
}

// Poll returns the outcome if the fiber is Done, without blocking.
func (f *Fiber) Poll() (Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateDone {
		return Outcome{}, false
	}
	return f.outcome, true
}

// RequestInterrupt asks the fiber to stop. It never blocks and is
// idempotent. A Running fiber observes the request at its next suspension or
// cooperative checkpoint; a Suspended fiber is woken immediately to run its
// unwind; a Done fiber is unaffected.
func (f *Fiber) RequestInterrupt() {
	f.interruptFlag.Store(true)
	f.mu.Lock()
	if f.state != StateSuspended {
		f.mu.Unlock()
		return
	}
	f.state = StateInterrupting
	f.waitGen++ // drop in-flight wakeups from the abandoned wait
	f.resume = nil
	f.closeResume = nil
	f.mu.Unlock()
	f.rt.sched.enqueue(f)
}

// recheckInterrupt closes the park/interrupt race: an interrupt that landed
// between the pre-park flag check and the fiber actually suspending would
// otherwise never wake it.
func (f *Fiber) recheckInterrupt() {
	if f.interruptFlag.Load() {
		f.RequestInterrupt()
	}
}

// Interrupt requests interruption and waits for the fiber to finish,
// including its own finalizers, before returning the outcome.
func (f *Fiber) Interrupt() Outcome {
	f.RequestInterrupt()
	return f.Await()
}

// watch registers fn to be called exactly once with the fiber's outcome.
// If the fiber is already Done, fn runs synchronously.
func (f *Fiber) watch(fn func(Outcome)) {
	f.mu.Lock()
	if f.state == StateDone {
		o := f.outcome
		f.mu.Unlock()
		fn(o)
		return
	}
	f.watchers = append(f.watchers, fn)
	f.mu.Unlock()
}

// deliver hands an awaited outcome to a suspended fiber and reschedules it.
// Stale generations and non-suspended states are dropped.
func (f *Fiber) deliver(gen uint64, o Outcome) {
	f.mu.Lock()
	if f.state != StateSuspended || f.waitGen != gen {
		f.mu.Unlock()
		return
	}
	f.delivered = o
	f.state = StateRunning
	f.mu.Unlock()
	f.rt.sched.enqueue(f)
}

// wake resumes a fiber suspended on a timer. No-op once the fiber has moved
// on (done, interrupting, or resumed by something else).
func (f *Fiber) wake(gen uint64) {
	f.mu.Lock()
	if f.state != StateSuspended || f.waitGen != gen {
		f.mu.Unlock()
		return
	}
	f.state = StateRunning
	f.mu.Unlock()
	f.rt.sched.enqueue(f)
}

// deliverClose resumes a fiber suspended on CloseScope with the aggregated
// close error.
func (f *Fiber) deliverClose(gen uint64, err error) {
	f.mu.Lock()
	if f.state != StateSuspended || f.waitGen != gen {
		f.mu.Unlock()
		return
	}
	f.closeErr = err
	f.state = StateRunning
	f.mu.Unlock()
	f.rt.sched.enqueue(f)
}

func (f *Fiber) currentScope() *Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := len(f.scopes); n > 0 {
		return f.scopes[n-1]
	}
	return nil
}

func (f *Fiber) addPending(child *Fiber) {
	f.mu.Lock()
	f.pending = append(f.pending, child)
	f.mu.Unlock()
}

func (f *Fiber) takePending() []*Fiber {
	f.mu.Lock()
	pend := f.pending
	f.pending = nil
	f.mu.Unlock()
	return pend
}
