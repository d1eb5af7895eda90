package fiber

import "time"

// ForkPolicy is one of the four fiber lifetime strategies. Callers choose a
// policy explicitly by picking a fork entry point; nothing is inferred.
type ForkPolicy int

const (
	// ForkSupervised links the new fiber to the forking fiber; when the
	// parent reaches Done the child is interrupted. The default policy.
	ForkSupervised ForkPolicy = iota

	// ForkDaemon attaches the new fiber to the global scope, detached from
	// any parent.
	ForkDaemon

	// ForkScoped attaches the new fiber to the ambient scope captured at the
	// call site.
	ForkScoped

	// ForkExplicit attaches the new fiber to a caller-supplied scope.
	ForkExplicit
)

func (p ForkPolicy) String() string {
	switch p {
	case ForkSupervised:
		return "supervised"
	case ForkDaemon:
		return "daemon"
	case ForkScoped:
		return "scoped"
	case ForkExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

type forkRequest struct {
	policy  ForkPolicy
	comp    Computation
	forker  *Fiber // fiber issuing the fork, nil for external callers
	ambient *Scope // captured ambient scope, ForkScoped only
	target  *Scope // caller-supplied scope, ForkExplicit only
}

// resolve maps a fork request onto its parent link and scope attachment.
func (rt *Runtime) resolve(req forkRequest) (parent *Fiber, attach *Scope, err error) {
	switch req.policy {
	case ForkSupervised:
		return req.forker, nil, nil
	case ForkDaemon:
		return nil, rt.global, nil
	case ForkScoped:
		if req.ambient == nil {
			return nil, nil, ErrNoScope
		}
		return nil, req.ambient, nil
	case ForkExplicit:
		if req.target == nil {
			return nil, nil, ErrNoScope
		}
		return nil, req.target, nil
	default:
		return nil, nil, ErrNoScope
	}
}

func (rt *Runtime) fork(req forkRequest) (*Fiber, error) {
	if req.comp == nil {
		req.comp = func(*Turn) Result { return End(nil) }
	}
	if rt.closed.Load() {
		return nil, ErrRuntimeClosed
	}

	parent, attach, err := rt.resolve(req)
	if err != nil {
		return nil, err
	}

	f := &Fiber{
		id:       rt.fiberID.Add(1),
		rt:       rt,
		forkedAt: time.Now(),
		state:    StateRunning,
		next:     req.comp,
		parent:   parent,
		scope:    attach,
	}

	// Seed the ambient scope: the attachment target if any, otherwise the
	// forker's current ambient scope.
	if attach != nil {
		f.scopes = []*Scope{attach}
	} else if req.forker != nil {
		if a := req.forker.currentScope(); a != nil {
			f.scopes = []*Scope{a}
		}
	}

	if attach != nil {
		if err := attach.attach(f); err != nil {
			return nil, err
		}
	}
	if req.policy == ForkSupervised {
		rt.sup.register(parent, f)
	}
	rt.trackFiber(f)
	if rt.obs != nil {
		rt.obs.FiberForked(f.id, req.policy)
	}

	// The yield contract: fibers forked mid-step stay pending until the
	// forking fiber's segment ends. External forks are runnable at once.
	if req.forker != nil {
		req.forker.addPending(f)
	} else {
		rt.sched.enqueue(f)
	}
	return f, nil
}

// deadFiber returns an already-failed fiber so fork entry points that do not
// return an error still surface the cause through the outcome.
func (rt *Runtime) deadFiber(err error) *Fiber {
	return &Fiber{
		id:       rt.fiberID.Add(1),
		rt:       rt,
		forkedAt: time.Now(),
		state:    StateDone,
		outcome:  FailureOf(err),
	}
}
