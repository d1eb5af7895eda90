package fiber

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Runtime is the fiber kernel: the scheduler, the supervisor registry, and
// the process-wide global scope. Create one with New and tear it down with
// Close; avoid ambient globals — pass the Runtime (or a Scope) explicitly.
type Runtime struct {
	opts Options
	obs  Observer

	sched *scheduler
	sup   *supervisor
	lim   Limiter

	global *Scope

	fiberID atomic.Uint64
	scopeID atomic.Uint64

	mu   sync.Mutex
	live map[uint64]*Fiber

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New bootstraps a runtime: global scope, supervisor, and scheduler workers.
func New(optFns ...Option) *Runtime {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	rt := &Runtime{
		opts: opts,
		obs:  opts.Observer,
		sup:  newSupervisor(),
		lim:  newWeightedLimiter(int64(opts.MaxConcurrency)),
		live: make(map[uint64]*Fiber),
	}
	rt.global = rt.newScope(nil, RoleGlobal)
	rt.sched = newScheduler(rt)
	rt.sched.start(opts.Workers)
	return rt
}

// GlobalScope returns the process-wide scope daemon fibers attach to. It is
// closed only by Close.
func (rt *Runtime) GlobalScope() *Scope { return rt.global }

// Fork starts c under automatic supervision. Called from outside any fiber
// there is no supervising parent; the fiber is a root. The handle of a fork
// issued after Close carries Failure(ErrRuntimeClosed).
func (rt *Runtime) Fork(c Computation) *Fiber {
	f, err := rt.fork(forkRequest{policy: ForkSupervised, comp: c})
	if err != nil {
		return rt.deadFiber(err)
	}
	return f
}

// ForkDaemon starts c attached to the global scope.
func (rt *Runtime) ForkDaemon(c Computation) *Fiber {
	f, err := rt.fork(forkRequest{policy: ForkDaemon, comp: c})
	if err != nil {
		return rt.deadFiber(err)
	}
	return f
}

// ForkScoped starts c attached to the ambient scope carried by ctx (see
// WithScope). It fails with ErrNoScope when ctx carries none.
func (rt *Runtime) ForkScoped(ctx context.Context, c Computation) (*Fiber, error) {
	ambient, _ := ScopeFrom(ctx)
	return rt.fork(forkRequest{policy: ForkScoped, comp: c, ambient: ambient})
}

// ForkIn starts c attached to s.
func (rt *Runtime) ForkIn(c Computation, s *Scope) (*Fiber, error) {
	return rt.fork(forkRequest{policy: ForkExplicit, comp: c, target: s})
}

// Close shuts the runtime down: it closes the global scope (interrupting
// daemon fibers and running its finalizers), interrupts and joins every
// remaining live fiber, then stops the workers. Idempotent; returns the
// global scope's aggregated close error.
func (rt *Runtime) Close() error {
	rt.closeOnce.Do(func() {
		rt.closed.Store(true)
		err := rt.global.Close()
		for _, f := range rt.liveFibers() {
			f.RequestInterrupt()
		}
		for _, f := range rt.liveFibers() {
			f.Await()
		}
		rt.sched.stop()
		rt.closeErr = err
	})
	return rt.closeErr
}

// LiveFibers returns a snapshot of fibers that have not reached Done.
func (rt *Runtime) LiveFibers() []*Fiber { return rt.liveFibers() }

// SupervisedChildren returns a snapshot of the fibers forked under f with
// automatic supervision that have not yet completed.
func (rt *Runtime) SupervisedChildren(f *Fiber) []*Fiber {
	if f == nil {
		return nil
	}
	return rt.sup.childrenOf(f.id)
}

func (rt *Runtime) liveFibers() []*Fiber {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]*Fiber, 0, len(rt.live))
	for _, f := range rt.live {
		out = append(out, f)
	}
	return out
}

func (rt *Runtime) trackFiber(f *Fiber) {
	rt.mu.Lock()
	rt.live[f.id] = f
	rt.mu.Unlock()
}

func (rt *Runtime) dropFiber(id uint64) {
	rt.mu.Lock()
	delete(rt.live, id)
	rt.mu.Unlock()
}

// finish moves f to Done with outcome o. Fiber-local finalizers run first,
// in reverse order; then the supervisor and governing scope are notified and
// every registered observer callback fires exactly once.
func (rt *Runtime) finish(f *Fiber, o Outcome) {
	f.mu.Lock()
	defs := f.defers
	f.defers = nil
	f.mu.Unlock()

	var ferr error
	for i := len(defs) - 1; i >= 0; i-- {
		if err := rt.runFinalizer(defs[i]); err != nil {
			ferr = errors.Join(ferr, &FinalizerError{Err: err})
		}
	}
	// A finalizer failure fails a successful fiber but never masks an
	// interruption or an earlier failure.
	if ferr != nil && o.Kind == Success {
		o = FailureOf(ferr)
	}

	f.mu.Lock()
	if f.state == StateDone {
		f.mu.Unlock()
		return
	}
	f.state = StateDone
	f.outcome = o
	ws := f.watchers
	f.watchers = nil
	f.mu.Unlock()

	rt.release(f)
	rt.sup.parentDone(f)
	rt.sup.childDone(f)
	if s := f.scope; s != nil {
		s.detach(f)
	}
	rt.dropFiber(f.id)

	// Observer first, so metrics are settled by the time Await returns.
	if rt.obs != nil {
		rt.obs.FiberDone(f.id, time.Since(f.forkedAt), o)
	}
	for _, w := range ws {
		w(o)
	}
}

// runFinalizer invokes fn with panic containment; a panic surfaces as a
// *PanicError return.
func (rt *Runtime) runFinalizer(fn func() error) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return fn()
}
