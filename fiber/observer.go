package fiber

import "time"

// Observer receives lifecycle notifications from the runtime. Implementations
// must be safe for concurrent use; hooks run on scheduler workers and must be
// fast and non-blocking.
type Observer interface {
	FiberForked(id uint64, policy ForkPolicy)
	FiberSuspended(id uint64, reason string)
	FiberDone(id uint64, dur time.Duration, o Outcome)
	ScopeCreated(id uint64, role Role)
	ScopeClosed(id uint64, dur time.Duration, err error)
}
