package introspect

import (
	"strings"
	"testing"

	"github.com/NetPo4ki/go-fiber/fiber"
)

func yieldForever(t *fiber.Turn) fiber.Result {
	return fiber.Yield(yieldForever)
}

func TestScopesShowsAttachedFibers(t *testing.T) {
	rt := fiber.New()
	defer rt.Close()

	s := rt.NewScope()
	f, err := rt.ForkIn(yieldForever, s)
	if err != nil {
		t.Fatalf("ForkIn: %v", err)
	}

	out := Scopes(rt)
	if !strings.Contains(out, "global") {
		t.Fatalf("missing global scope in:\n%s", out)
	}
	if !strings.Contains(out, "scope") || !strings.Contains(out, "fiber") {
		t.Fatalf("missing scope/fiber nodes in:\n%s", out)
	}
	f.Interrupt()
	s.Close()
}

func TestSupervisionShowsParentChildEdges(t *testing.T) {
	rt := fiber.New()
	defer rt.Close()

	forked := make(chan struct{})
	p := rt.Fork(func(tn *fiber.Turn) fiber.Result {
		tn.Fork(yieldForever)
		close(forked)
		return fiber.Yield(yieldForever)
	})
	<-forked

	out := Supervision(rt)
	if !strings.Contains(out, "fiber") {
		t.Fatalf("missing fiber nodes in:\n%s", out)
	}
	p.Interrupt()
}
