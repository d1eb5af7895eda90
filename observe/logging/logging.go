// Package logging adapts a log/slog logger to the fiber.Observer interface.
// Fiber lifecycle events log at Debug; scope closes with finalizer failures
// log at Error.
package logging

import (
	"log/slog"
	"time"

	"github.com/NetPo4ki/go-fiber/fiber"
)

// Observer logs runtime lifecycle events through an slog.Logger.
type Observer struct {
	log *slog.Logger
}

// New wraps l; a nil logger falls back to slog.Default().
func New(l *slog.Logger) *Observer {
	if l == nil {
		l = slog.Default()
	}
	return &Observer{log: l}
}

func (o *Observer) FiberForked(id uint64, policy fiber.ForkPolicy) {
	o.log.Debug("fiber forked", "fiber", id, "policy", policy.String())
}

func (o *Observer) FiberSuspended(id uint64, reason string) {
	o.log.Debug("fiber suspended", "fiber", id, "reason", reason)
}

func (o *Observer) FiberDone(id uint64, dur time.Duration, out fiber.Outcome) {
	if out.Kind == fiber.Failure {
		o.log.Warn("fiber failed", "fiber", id, "duration", dur, "error", out.Err)
		return
	}
	o.log.Debug("fiber done", "fiber", id, "duration", dur, "outcome", out.Kind.String())
}

func (o *Observer) ScopeCreated(id uint64, role fiber.Role) {
	o.log.Debug("scope created", "scope", id, "role", role.String())
}

func (o *Observer) ScopeClosed(id uint64, dur time.Duration, err error) {
	if err != nil {
		o.log.Error("scope closed with finalizer failures", "scope", id, "duration", dur, "error", err)
		return
	}
	o.log.Debug("scope closed", "scope", id, "duration", dur)
}
