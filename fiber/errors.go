package fiber

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrScopeClosed is returned by operations against an already-closed scope.
	ErrScopeClosed = errors.New("fiber: scope closed")

	// ErrInterrupted is carried by the Outcome of an interrupted fiber.
	ErrInterrupted = errors.New("fiber: interrupted")

	// ErrNoScope is returned by ForkScoped when no ambient scope is in effect.
	ErrNoScope = errors.New("fiber: no ambient scope")

	// ErrRuntimeClosed is the failure cause of fibers forked after Runtime.Close.
	ErrRuntimeClosed = errors.New("fiber: runtime closed")
)

// errMalformedResult covers Results built with nil targets or resumes.
var errMalformedResult = errors.New("fiber: malformed result")

// IsInterrupted reports whether err (or any error in its chain) is ErrInterrupted.
func IsInterrupted(err error) bool { return errors.Is(err, ErrInterrupted) }

// PanicError wraps a recovered panic value together with the goroutine
// stack trace captured at the point of the panic. Panics inside fiber
// computations and finalizers are converted to *PanicError by default.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("fiber: panic: %v\n\n%s", e.Value, e.Stack)
}

// AsPanic extracts the first *PanicError from err's chain.
func AsPanic(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func newPanicError(v any) *PanicError {
	// runtime.Stack truncates gracefully if the buffer is too small.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{Value: v, Stack: string(buf[:n])}
}

// FinalizerError attributes a finalizer failure to the scope it was
// registered on. Scope is zero for fiber-local finalizers added via
// Turn.Defer. Close aggregates these via errors.Join; closure still runs
// every remaining finalizer after a failure.
type FinalizerError struct {
	Scope uint64
	Err   error
}

func (e *FinalizerError) Error() string {
	if e.Scope == 0 {
		return fmt.Sprintf("fiber: finalizer failed: %v", e.Err)
	}
	return fmt.Sprintf("fiber: scope %d finalizer failed: %v", e.Scope, e.Err)
}

func (e *FinalizerError) Unwrap() error { return e.Err }
