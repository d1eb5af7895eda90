package fiber

import (
	"errors"
	"sync"
	"time"
)

// Role names what a scope is for. It is informational; all roles share the
// same close semantics.
type Role int

const (
	// RoleLocal scopes are created on demand and closed by their owning
	// control construct.
	RoleLocal Role = iota

	// RoleGlobal is the process-wide scope created at runtime bootstrap and
	// closed only by Runtime.Close. Daemon fibers attach here.
	RoleGlobal

	// RoleExplicit marks scopes created to be passed around as ForkIn
	// targets.
	RoleExplicit
)

func (r Role) String() string {
	switch r {
	case RoleLocal:
		return "local"
	case RoleGlobal:
		return "global"
	case RoleExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// Scope is a lifetime container: it holds finalizers and tracks attached
// fibers so that closing the scope interrupts them. Attachment is weak — a
// scope never keeps a fiber alive, and a fiber that reaches Done detaches
// itself.
type Scope struct {
	id     uint64
	role   Role
	rt     *Runtime
	parent *Scope

	mu       sync.Mutex
	closing  bool
	closed   bool
	finals   []func() error
	fibers   map[uint64]*Fiber
	children []*Scope

	closeOnce sync.Once
	closeErr  error
}

// NewScope creates a scope parented (for diagnostics only) under the global
// scope. Closing a parent never cascades to scopes it did not fork into;
// the enclosing control construct owns that ordering.
func (rt *Runtime) NewScope(role ...Role) *Scope {
	r := RoleLocal
	if len(role) > 0 {
		r = role[0]
	}
	return rt.newScope(rt.global, r)
}

// Child creates a scope linked under s. The linkage is diagnostic; closing s
// does not close the child.
func (s *Scope) Child(role ...Role) *Scope {
	r := RoleLocal
	if len(role) > 0 {
		r = role[0]
	}
	return s.rt.newScope(s, r)
}

func (rt *Runtime) newScope(parent *Scope, role Role) *Scope {
	s := &Scope{
		id:     rt.scopeID.Add(1),
		role:   role,
		rt:     rt,
		parent: parent,
		fibers: make(map[uint64]*Fiber),
	}
	if parent != nil {
		parent.addChild(s)
	}
	if rt.obs != nil {
		rt.obs.ScopeCreated(s.id, role)
	}
	return s
}

// ID returns the scope's unique id.
func (s *Scope) ID() uint64 { return s.id }

// Role returns the scope's named role.
func (s *Scope) Role() Role { return s.role }

// Parent returns the scope this one was created under, nil for the global
// scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Closed reports whether Close has completed.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// AddFinalizer appends fn to the finalizer list; finalizers run in reverse
// registration order when the scope closes. If the scope is already closed
// the action still runs immediately — resources must always be released,
// even late — and ErrScopeClosed is returned, joined with the action's own
// error if it failed.
func (s *Scope) AddFinalizer(fn func() error) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	if s.closing || s.closed {
		s.mu.Unlock()
		if err := s.rt.runFinalizer(fn); err != nil {
			return errors.Join(ErrScopeClosed, &FinalizerError{Scope: s.id, Err: err})
		}
		return ErrScopeClosed
	}
	s.finals = append(s.finals, fn)
	s.mu.Unlock()
	return nil
}

// Close tears the scope down: it requests interruption of every attached
// fiber, waits for each to finish its unwind, then runs finalizers in
// reverse registration order. Finalizer failures are collected — a failure
// never skips the remaining finalizers — and returned as a single aggregate.
// Close is idempotent; every caller gets the same aggregate.
func (s *Scope) Close() error {
	s.closeOnce.Do(func() {
		start := time.Now()

		s.mu.Lock()
		s.closing = true
		attached := make([]*Fiber, 0, len(s.fibers))
		for _, f := range s.fibers {
			attached = append(attached, f)
		}
		s.mu.Unlock()

		// Interrupt everything first so teardown overlaps, then join.
		for _, f := range attached {
			f.RequestInterrupt()
		}
		for _, f := range attached {
			f.Await()
		}

		s.mu.Lock()
		finals := s.finals
		s.finals = nil
		s.mu.Unlock()

		var agg error
		for i := len(finals) - 1; i >= 0; i-- {
			if err := s.rt.runFinalizer(finals[i]); err != nil {
				agg = errors.Join(agg, &FinalizerError{Scope: s.id, Err: err})
			}
		}

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.closeErr = agg

		if s.parent != nil {
			s.parent.removeChild(s)
		}
		if s.rt.obs != nil {
			s.rt.obs.ScopeClosed(s.id, time.Since(start), agg)
		}
	})
	return s.closeErr
}

// Fibers returns a snapshot of the fibers currently attached for
// interrupt-on-close tracking.
func (s *Scope) Fibers() []*Fiber {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Fiber, 0, len(s.fibers))
	for _, f := range s.fibers {
		out = append(out, f)
	}
	return out
}

// Children returns a snapshot of scopes created under this one.
func (s *Scope) Children() []*Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Scope, len(s.children))
	copy(out, s.children)
	return out
}

func (s *Scope) attach(f *Fiber) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing || s.closed {
		return ErrScopeClosed
	}
	s.fibers[f.id] = f
	return nil
}

func (s *Scope) detach(f *Fiber) {
	s.mu.Lock()
	delete(s.fibers, f.id)
	s.mu.Unlock()
}

func (s *Scope) addChild(c *Scope) {
	s.mu.Lock()
	s.children = append(s.children, c)
	s.mu.Unlock()
}

func (s *Scope) removeChild(c *Scope) {
	s.mu.Lock()
	for i, x := range s.children {
		if x == c {
			s.children = append(s.children[:i], s.children[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}
