// Package prom exports fiber runtime lifecycle metrics to Prometheus.
// It implements the fiber.Observer interface with real collectors; pass the
// observer to fiber.New via fiber.WithObserver.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NetPo4ki/go-fiber/fiber"
)

// Observer is a Prometheus-backed fiber.Observer.
type Observer struct {
	forks        *prometheus.CounterVec
	done         *prometheus.CounterVec
	suspends     *prometheus.CounterVec
	activeFibers prometheus.Gauge
	fiberDur     prometheus.Histogram

	scopesCreated *prometheus.CounterVec
	openScopes    prometheus.Gauge
	scopeCloseDur prometheus.Histogram
	scopeCloseErr prometheus.Counter
}

// New registers the collectors with reg and returns the observer. Use
// prometheus.DefaultRegisterer outside of tests.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		forks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fiber",
			Name:      "forks_total",
			Help:      "Fibers forked, by lifetime policy.",
		}, []string{"policy"}),
		done: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fiber",
			Name:      "done_total",
			Help:      "Fibers completed, by outcome kind.",
		}, []string{"outcome"}),
		suspends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fiber",
			Name:      "suspensions_total",
			Help:      "Fiber suspensions, by reason.",
		}, []string{"reason"}),
		activeFibers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fiber",
			Name:      "active",
			Help:      "Fibers forked but not yet Done.",
		}),
		fiberDur: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fiber",
			Name:      "duration_seconds",
			Help:      "Fiber lifetime from fork to Done.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		scopesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fiber",
			Subsystem: "scope",
			Name:      "created_total",
			Help:      "Scopes created, by role.",
		}, []string{"role"}),
		openScopes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fiber",
			Subsystem: "scope",
			Name:      "open",
			Help:      "Scopes created and not yet closed.",
		}),
		scopeCloseDur: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fiber",
			Subsystem: "scope",
			Name:      "close_duration_seconds",
			Help:      "Time spent in Close, including fiber teardown and finalizers.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		scopeCloseErr: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fiber",
			Subsystem: "scope",
			Name:      "close_errors_total",
			Help:      "Scope closes whose finalizer aggregate was non-nil.",
		}),
	}
}

// FiberForked counts the fork and bumps the active gauge.
func (o *Observer) FiberForked(_ uint64, policy fiber.ForkPolicy) {
	o.forks.WithLabelValues(policy.String()).Inc()
	o.activeFibers.Inc()
}

// FiberSuspended counts a suspension by reason.
func (o *Observer) FiberSuspended(_ uint64, reason string) {
	o.suspends.WithLabelValues(reason).Inc()
}

// FiberDone counts the completion by outcome kind and observes the lifetime.
func (o *Observer) FiberDone(_ uint64, dur time.Duration, out fiber.Outcome) {
	o.done.WithLabelValues(out.Kind.String()).Inc()
	o.activeFibers.Dec()
	o.fiberDur.Observe(dur.Seconds())
}

// ScopeCreated counts the scope by role and bumps the open gauge.
func (o *Observer) ScopeCreated(_ uint64, role fiber.Role) {
	o.scopesCreated.WithLabelValues(role.String()).Inc()
	o.openScopes.Inc()
}

// ScopeClosed observes the close duration and tracks finalizer failures.
func (o *Observer) ScopeClosed(_ uint64, dur time.Duration, err error) {
	o.openScopes.Dec()
	o.scopeCloseDur.Observe(dur.Seconds())
	if err != nil {
		o.scopeCloseErr.Inc()
	}
}
