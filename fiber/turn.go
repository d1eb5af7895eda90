package fiber

// Turn is the in-fiber view of the runtime, passed to every Computation.
// It is only valid for the duration of the step that received it.
type Turn struct {
	f  *Fiber
	rt *Runtime
}

// Runtime returns the runtime executing this fiber.
func (t *Turn) Runtime() *Runtime { return t.rt }

// FiberID returns the id of the fiber running this step.
func (t *Turn) FiberID() uint64 { return t.f.id }

// Interrupted reports whether an interrupt has been requested for this
// fiber. Computations with long synchronous segments should poll it and
// return early; the scheduler also checks at every suspension point.
func (t *Turn) Interrupted() bool { return t.f.interruptFlag.Load() }

// Defer registers a fiber-local finalizer. Finalizers run in reverse
// registration order on every completion path, including interruption
// unwind, before any observer of the fiber is notified. A finalizer error
// turns a Success outcome into a Failure; it never masks an interruption.
func (t *Turn) Defer(fn func() error) {
	if fn == nil {
		return
	}
	t.f.mu.Lock()
	t.f.defers = append(t.f.defers, fn)
	t.f.mu.Unlock()
}

// Scope returns the fiber's current ambient scope, or nil if none is in
// effect. ForkScoped attaches new fibers to this scope.
func (t *Turn) Scope() *Scope { return t.f.currentScope() }

// EnterScope pushes s onto the fiber's ambient scope stack. The ambient
// scope is explicit state carried by the fiber, not hidden thread-local
// storage; callers pair EnterScope with ExitScope.
func (t *Turn) EnterScope(s *Scope) {
	if s == nil {
		return
	}
	t.f.mu.Lock()
	t.f.scopes = append(t.f.scopes, s)
	t.f.mu.Unlock()
}

// ExitScope pops the most recently entered ambient scope. It does not close
// the scope; lifetime remains with whoever created it.
func (t *Turn) ExitScope() {
	t.f.mu.Lock()
	if n := len(t.f.scopes); n > 0 {
		t.f.scopes[n-1] = nil
		t.f.scopes = t.f.scopes[:n-1]
	}
	t.f.mu.Unlock()
}

// Fork starts c under automatic supervision: the new fiber is linked to the
// current fiber and receives an interrupt request when it reaches Done.
// The child does not begin executing until the current segment suspends,
// yields, or completes.
func (t *Turn) Fork(c Computation) *Fiber {
	f, err := t.rt.fork(forkRequest{policy: ForkSupervised, comp: c, forker: t.f})
	if err != nil {
		return t.rt.deadFiber(err)
	}
	return f
}

// ForkDaemon starts c attached to the global scope, detached from the
// current fiber's lifetime. It stops only on natural completion or when the
// runtime shuts down.
func (t *Turn) ForkDaemon(c Computation) *Fiber {
	f, err := t.rt.fork(forkRequest{policy: ForkDaemon, comp: c, forker: t.f})
	if err != nil {
		return t.rt.deadFiber(err)
	}
	return f
}

// ForkScoped starts c attached to the fiber's ambient scope. It fails with
// ErrNoScope when no ambient scope is in effect.
func (t *Turn) ForkScoped(c Computation) (*Fiber, error) {
	return t.rt.fork(forkRequest{policy: ForkScoped, comp: c, forker: t.f, ambient: t.f.currentScope()})
}

// ForkIn starts c attached to the caller-supplied scope, which may be an
// ancestor captured before entering an inner scope. It fails with
// ErrScopeClosed if s is already closed.
func (t *Turn) ForkIn(c Computation, s *Scope) (*Fiber, error) {
	return t.rt.fork(forkRequest{policy: ForkExplicit, comp: c, forker: t.f, target: s})
}
