package fiber

import "sync"

// supervisor tracks parent→child edges created by automatic-supervision
// forks. When a parent reaches Done, every child not yet Done receives an
// interrupt request; teardown is asynchronous relative to the parent's own
// completion notification.
type supervisor struct {
	mu       sync.Mutex
	children map[uint64][]*Fiber
}

func newSupervisor() *supervisor {
	return &supervisor{children: make(map[uint64][]*Fiber)}
}

// register records the supervision edge. Callers only invoke it for
// ForkSupervised; any other policy leaves the link unrecorded.
func (sv *supervisor) register(parent, child *Fiber) {
	if parent == nil || child == nil {
		return
	}
	sv.mu.Lock()
	sv.children[parent.id] = append(sv.children[parent.id], child)
	sv.mu.Unlock()
}

// parentDone sends interrupt requests to every remaining child of parent.
// It never blocks waiting for the children to finish.
func (sv *supervisor) parentDone(parent *Fiber) {
	sv.mu.Lock()
	kids := sv.children[parent.id]
	delete(sv.children, parent.id)
	sv.mu.Unlock()
	for _, c := range kids {
		c.RequestInterrupt()
	}
}

// childDone drops the edge from the child's supervising parent so the
// registry does not accumulate completed fibers.
func (sv *supervisor) childDone(child *Fiber) {
	p := child.parent
	if p == nil {
		return
	}
	sv.mu.Lock()
	kids := sv.children[p.id]
	for i, c := range kids {
		if c == child {
			kids = append(kids[:i], kids[i+1:]...)
			break
		}
	}
	if len(kids) == 0 {
		delete(sv.children, p.id)
	} else {
		sv.children[p.id] = kids
	}
	sv.mu.Unlock()
}

// childrenOf returns a snapshot of the supervised children of the given
// fiber id.
func (sv *supervisor) childrenOf(id uint64) []*Fiber {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	kids := sv.children[id]
	out := make([]*Fiber, len(kids))
	copy(out, kids)
	return out
}
