package otel

import (
	"time"

	"github.com/NetPo4ki/go-fiber/fiber"
)

// Nop is a no-op implementation of the fiber.Observer interface.
// It serves as a placeholder for an OpenTelemetry-backed observer without
// adding dependencies.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) FiberForked(uint64, fiber.ForkPolicy)           {}
func (*Nop) FiberSuspended(uint64, string)                  {}
func (*Nop) FiberDone(uint64, time.Duration, fiber.Outcome) {}
func (*Nop) ScopeCreated(uint64, fiber.Role)                {}
func (*Nop) ScopeClosed(uint64, time.Duration, error)       {}
