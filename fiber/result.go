package fiber

import "time"

// Computation is one synchronous segment of a fiber's work. It runs on a
// scheduler worker without preemption until it returns a Result describing
// how the fiber proceeds: end, yield, or suspend. Long-running fibers are
// expressed as chains of computations rather than blocking calls, which
// keeps every suspension and interruption checkpoint explicit.
type Computation func(t *Turn) Result

type resultKind int

const (
	resultEnd resultKind = iota
	resultYield
	resultAwait
	resultSleep
	resultClose
)

// Result is returned by a Computation to tell the scheduler what the fiber
// does next. Construct via End, Fail, Yield, Await, Sleep, or CloseScope.
type Result struct {
	kind        resultKind
	outcome     Outcome
	next        Computation
	resume      func(t *Turn, o Outcome) Result
	closeResume func(t *Turn, err error) Result
	target      *Fiber
	scope       *Scope
	delay       time.Duration
}

// End completes the fiber successfully with v.
func End(v any) Result {
	return Result{kind: resultEnd, outcome: SuccessOf(v)}
}

// Fail completes the fiber with a Failure outcome. Fail(nil) ends successfully.
func Fail(err error) Result {
	return Result{kind: resultEnd, outcome: FailureOf(err)}
}

// Yield re-enqueues the fiber at the back of the ready queue and continues
// with next. Other ready fibers, including ones forked during the current
// segment, run before next does.
func Yield(next Computation) Result {
	return Result{kind: resultYield, next: next}
}

// Await suspends the fiber until h reaches Done, then continues with resume
// applied to h's outcome. Awaiting an already-Done fiber resumes immediately
// with the stored outcome, but still counts as a suspension point.
func Await(h *Fiber, resume func(t *Turn, o Outcome) Result) Result {
	return Result{kind: resultAwait, target: h, resume: resume}
}

// Sleep suspends the fiber for at least d, then continues with next.
func Sleep(d time.Duration, next Computation) Result {
	return Result{kind: resultSleep, delay: d, next: next}
}

// CloseScope suspends the fiber while s closes, then continues with resume
// applied to the aggregated close error. The close itself runs off-worker so
// a fiber can tear down an inner scope without stalling a carrier.
func CloseScope(s *Scope, resume func(t *Turn, err error) Result) Result {
	return Result{kind: resultClose, scope: s, closeResume: resume}
}
