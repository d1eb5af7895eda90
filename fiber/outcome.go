package fiber

// Kind classifies how a fiber's computation ended.
type Kind int

const (
	// Success means the computation produced a value.
	Success Kind = iota

	// Failure means the computation returned or raised an error.
	Failure

	// Interrupted means the fiber was cancelled before natural completion.
	Interrupted
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a fiber. Once a fiber reaches Done its
// Outcome is immutable and every observer sees the identical value.
type Outcome struct {
	Kind  Kind
	Value any
	Err   error
}

// SuccessOf wraps a value in a successful Outcome.
func SuccessOf(v any) Outcome { return Outcome{Kind: Success, Value: v} }

// FailureOf wraps an error in a failed Outcome. A nil error is reported as
// Success so callers can pass through computation results directly.
func FailureOf(err error) Outcome {
	if err == nil {
		return Outcome{Kind: Success}
	}
	return Outcome{Kind: Failure, Err: err}
}

var outcomeInterrupted = Outcome{Kind: Interrupted, Err: ErrInterrupted}
