package fiber

import "runtime"

// Option configures a Runtime.
type Option func(*Options)

// Options holds runtime configuration. Zero values fall back to defaults;
// construct via New which applies defaultOptions first.
type Options struct {
	Workers        int
	MaxConcurrency int
	PanicAsError   bool
	Observer       Observer
}

func defaultOptions() Options {
	return Options{Workers: runtime.GOMAXPROCS(0), PanicAsError: true}
}

// WithWorkers sets the number of worker goroutines draining the ready queue.
// The yield-ordering contract holds for any worker count; tests that need a
// fully deterministic interleaving use a single worker.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithMaxConcurrency bounds the number of fiber steps executing
// simultaneously across all workers. Zero (the default) means no bound
// beyond the worker count.
func WithMaxConcurrency(n int) Option {
	return func(o *Options) { o.MaxConcurrency = n }
}

// WithPanicAsError controls whether panics inside computations are converted
// to Failure(*PanicError) outcomes (the default) or re-raised on the worker.
func WithPanicAsError(v bool) Option {
	return func(o *Options) { o.PanicAsError = v }
}

// WithObserver registers lifecycle hooks for metrics or logging.
func WithObserver(obs Observer) Option {
	return func(o *Options) { o.Observer = obs }
}
